package oracle_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/sony/gobreaker"

	"github.com/okian/tianji/internal/adapters/oracle"
	"github.com/okian/tianji/pkg/logger"
)

type capturedRequest struct {
	Model       string           `json:"model"`
	Messages    []oracle.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

func upstream(status int, body string, seen *capturedRequest, auth *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
}

func history(n int) []oracle.Message {
	out := make([]oracle.Message, n)
	for i := range out {
		role := oracle.RoleUser
		if i%2 == 1 {
			role = oracle.RoleAssistant
		}
		out[i] = oracle.Message{Role: role, Content: fmt.Sprintf("turn-%d", i)}
	}
	return out
}

func TestBuildMessages(t *testing.T) {
	Convey("Given a long conversation", t, func() {
		h := history(14)

		Convey("When messages are built with the default limit", func() {
			msgs := oracle.BuildMessages("今年运势如何", h, oracle.DefaultHistoryLimit)

			Convey("Then the system prompt leads and only the last ten turns follow", func() {
				So(len(msgs), ShouldEqual, 12)
				So(msgs[0].Role, ShouldEqual, oracle.RoleSystem)
				So(msgs[0].Content, ShouldEqual, oracle.SystemPrompt)
				So(msgs[1].Content, ShouldEqual, "turn-4")
				So(msgs[10].Content, ShouldEqual, "turn-13")
				So(msgs[11], ShouldResemble, oracle.Message{Role: oracle.RoleUser, Content: "今年运势如何"})
			})
		})

		Convey("When the limit is zero", func() {
			msgs := oracle.BuildMessages("hi", h, 0)

			Convey("Then history is dropped", func() {
				So(len(msgs), ShouldEqual, 2)
			})
		})

		Convey("When history is shorter than the limit", func() {
			msgs := oracle.BuildMessages("hi", h[:3], 10)

			Convey("Then all of it is kept", func() {
				So(len(msgs), ShouldEqual, 5)
			})
		})
	})
}

func TestStaticOracle(t *testing.T) {
	Convey("Given the static oracle", t, func() {
		var o oracle.Oracle = oracle.StaticOracle{}

		Convey("Then every message gets the fallback reply", func() {
			reply, err := o.Reply(context.Background(), "hello", nil)
			So(err, ShouldBeNil)
			So(reply, ShouldEqual, oracle.FallbackReply)
		})

		Convey("Then an empty message is rejected", func() {
			_, err := o.Reply(context.Background(), "", nil)
			So(errors.Is(err, oracle.ErrEmptyMessage), ShouldBeTrue)
		})
	})
}

func TestHTTPOracle(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given an upstream that answers", t, func() {
		var seen capturedRequest
		var auth string
		srv := upstream(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"天机不可泄露"}}]}`, &seen, &auth)
		defer srv.Close()

		o := oracle.NewHTTP(
			oracle.WithURL(srv.URL),
			oracle.WithAPIKey("k-123"),
			oracle.WithModel("test-model"),
			oracle.WithTemperature(0.3),
			oracle.WithMaxTokens(64),
			oracle.WithHistoryLimit(2),
		)

		Convey("When a message is sent", func() {
			reply, err := o.Reply(context.Background(), "问财运", history(5))

			Convey("Then the reply is extracted from the body", func() {
				So(err, ShouldBeNil)
				So(reply, ShouldEqual, "天机不可泄露")
			})

			Convey("And the request carries the configured fields", func() {
				So(auth, ShouldEqual, "Bearer k-123")
				So(seen.Model, ShouldEqual, "test-model")
				So(seen.Temperature, ShouldEqual, 0.3)
				So(seen.MaxTokens, ShouldEqual, 64)
				So(len(seen.Messages), ShouldEqual, 4)
				So(seen.Messages[1].Content, ShouldEqual, "turn-3")
			})
		})

		Convey("When the message is empty", func() {
			_, err := o.Reply(context.Background(), "", nil)

			Convey("Then it is rejected without a call", func() {
				So(errors.Is(err, oracle.ErrEmptyMessage), ShouldBeTrue)
				So(seen.Model, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an upstream with empty content", t, func() {
		srv := upstream(http.StatusOK, `{"choices":[{"message":{"content":""}}]}`, nil, nil)
		defer srv.Close()
		o := oracle.NewHTTP(oracle.WithURL(srv.URL))

		Convey("Then the fallback reply is returned", func() {
			reply, err := o.Reply(context.Background(), "hi", nil)
			So(err, ShouldBeNil)
			So(reply, ShouldEqual, oracle.FallbackReply)
		})
	})

	Convey("Given an upstream whose body lacks the reply path", t, func() {
		srv := upstream(http.StatusOK, `{"base_resp":{"status_code":0}}`, nil, nil)
		defer srv.Close()
		o := oracle.NewHTTP(oracle.WithURL(srv.URL))

		Convey("Then the fallback reply is returned", func() {
			reply, err := o.Reply(context.Background(), "hi", nil)
			So(err, ShouldBeNil)
			So(reply, ShouldEqual, oracle.FallbackReply)
		})
	})

	Convey("Given a custom reply path", t, func() {
		srv := upstream(http.StatusOK, `{"reply":{"text":"静观其变"}}`, nil, nil)
		defer srv.Close()
		o := oracle.NewHTTP(oracle.WithURL(srv.URL), oracle.WithReplyPath("$.reply.text"))

		Convey("Then the reply is read from that path", func() {
			reply, err := o.Reply(context.Background(), "hi", nil)
			So(err, ShouldBeNil)
			So(reply, ShouldEqual, "静观其变")
		})
	})

	Convey("Given a failing upstream", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()
		o := oracle.NewHTTP(oracle.WithURL(srv.URL), oracle.WithBreaker(2, time.Minute))

		Convey("When it fails repeatedly", func() {
			_, err1 := o.Reply(context.Background(), "a", nil)
			_, err2 := o.Reply(context.Background(), "b", nil)
			_, err3 := o.Reply(context.Background(), "c", nil)

			Convey("Then errors wrap ErrUpstream and the breaker opens", func() {
				So(errors.Is(err1, oracle.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err2, oracle.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err3, oracle.ErrUpstream), ShouldBeTrue)
				So(o.BreakerState(), ShouldEqual, gobreaker.StateOpen)
				So(atomic.LoadInt32(&calls), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an upstream returning malformed JSON", t, func() {
		srv := upstream(http.StatusOK, `{not json`, nil, nil)
		defer srv.Close()
		o := oracle.NewHTTP(oracle.WithURL(srv.URL))

		Convey("Then the call fails with ErrUpstream", func() {
			_, err := o.Reply(context.Background(), "hi", nil)
			So(errors.Is(err, oracle.ErrUpstream), ShouldBeTrue)
		})
	})

	Convey("Given a slow upstream", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()
		o := oracle.NewHTTP(oracle.WithURL(srv.URL), oracle.WithTimeout(20*time.Millisecond))

		Convey("Then the timeout surfaces as an upstream error", func() {
			_, err := o.Reply(context.Background(), "hi", nil)
			So(errors.Is(err, oracle.ErrUpstream), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}
