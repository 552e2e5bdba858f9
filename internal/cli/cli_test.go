package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tianji/internal/adapters/http/api"
	service "github.com/okian/tianji/internal/app"
	"github.com/okian/tianji/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestChartCommand(t *testing.T) {
	convey.Convey("Given the chart command", t, func() {
		convey.Convey("When a valid birth is given", func() {
			out, err := execute("chart", "--year", "1990", "--month", "1", "--day", "1", "--hour", "12")

			convey.Convey("Then the reading is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "庚午年 丙亥月 丙寅日 壬午时")
				convey.So(out, convey.ShouldContainSubstring, "用神  earth")
				convey.So(out, convey.ShouldContainSubstring, "缺    earth")
			})
		})

		convey.Convey("When JSON output is requested", func() {
			out, err := execute("chart", "--year", "1990", "--month", "1", "--day", "1", "--hour", "12", "--json")
			convey.So(err, convey.ShouldBeNil)

			var got chartOutput
			convey.So(json.Unmarshal([]byte(out), &got), convey.ShouldBeNil)

			convey.Convey("Then it carries the assessment", func() {
				convey.So(got.Chart, convey.ShouldEqual, "庚午年 丙亥月 丙寅日 壬午时")
				convey.So(got.UsefulGod.String(), convey.ShouldEqual, "earth")
				convey.So(got.OutputGod.String(), convey.ShouldEqual, "metal")
				convey.So(got.Counts["earth"], convey.ShouldEqual, 0)
				total := 0
				for _, n := range got.Counts {
					total += n
				}
				convey.So(total, convey.ShouldEqual, 8)
				convey.So(got.Materials, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the year is out of range", func() {
			_, err := execute("chart", "--year", "1800", "--month", "1", "--day", "1")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "year")
			})
		})

		convey.Convey("When a required flag is missing", func() {
			_, err := execute("chart", "--year", "1990")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMaterialsCommand(t *testing.T) {
	convey.Convey("Given the materials command", t, func() {
		convey.Convey("When asked for a Chinese element name", func() {
			out, err := execute("materials", "木")

			convey.Convey("Then the wood catalog is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldStartWith, "木 wood")
				convey.So(out, convey.ShouldContainSubstring, "- ")
			})
		})

		convey.Convey("When the element is unknown", func() {
			_, err := execute("materials", "aether")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When no element is given", func() {
			_, err := execute("materials")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestProbeCommand(t *testing.T) {
	svc := service.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer svc.Stop()
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	convey.Convey("Given a running server", t, func() {
		convey.Convey("When the probe command runs", func() {
			out, err := execute("probe", "--url", srv.URL, "--requests", "10", "--workers", "3", "--seed", "11")

			convey.Convey("Then every reading matches", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "seed 11: 10/10 matched, 0 mismatched, 0 failed")
			})
		})

		convey.Convey("When the server is unreachable", func() {
			_, err := execute("probe", "--url", "http://127.0.0.1:1", "--requests", "1", "--timeout", "500ms")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
