package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tianji/internal/adapters/oracle"
	app "github.com/okian/tianji/internal/app"
	"github.com/okian/tianji/internal/config"
	"github.com/okian/tianji/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startedService(t *testing.T) *app.Service {
	t.Helper()
	svc := app.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestNewOracle(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()

		convey.Convey("When no API key is configured", func() {
			o := newOracle(context.Background(), cfg)

			convey.Convey("Then the static oracle is used", func() {
				_, ok := o.(oracle.StaticOracle)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an API key is configured", func() {
			cfg.ChatAPIKey = "secret"
			o := newOracle(context.Background(), cfg)

			convey.Convey("Then the HTTP oracle is used", func() {
				_, ok := o.(*oracle.HTTPOracle)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}

func TestBuildHandler(t *testing.T) {
	svc := startedService(t)

	convey.Convey("Given the assembled handler", t, func() {
		cfg := config.New()
		cfg.CORSOrigins = []string{"https://tianji.example"}
		h := buildHandler(context.Background(), cfg, svc)

		serve := func(req *http.Request) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w
		}

		convey.Convey("When posting a reading", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/bazi", strings.NewReader(`{"year":1990,"month":1,"day":1,"hour":12}`))
			w := serve(req)

			convey.Convey("Then the API answers", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body map[string]interface{}
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body["useful_god"], convey.ShouldEqual, "earth")
			})
		})

		convey.Convey("When chatting without an upstream", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hello"}`))
			w := serve(req)

			convey.Convey("Then the fallback reply comes back", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, oracle.FallbackReply)
			})
		})

		convey.Convey("When requesting the site, the docs and metrics", func() {
			convey.Convey("Then each is routed", func() {
				for _, path := range []string{"/", "/fortune.html", "/api-docs", "/openapi.yaml", "/healthz", "/stats", "/api/chat"} {
					w := serve(httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})
		})

		convey.Convey("When a browser preflights from an allowed origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/bazi", http.NoBody)
			req.Header.Set("Origin", "https://tianji.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := serve(req)

			convey.Convey("Then CORS headers allow it", func() {
				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://tianji.example")
			})
		})
	})
}
