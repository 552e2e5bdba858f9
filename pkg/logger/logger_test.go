package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns it", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it is initialized with a nil writer", func() {
			Convey("Then it fails", func() {
				So(InitWithWriter(nil), ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "chart computed", String("chart", "甲子"), Int("hour", 3), Error(errors.New("boom")))

			Convey("Then the line has the message, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "chart computed")
				So(out, ShouldContainSubstring, "chart=甲子")
				So(out, ShouldContainSubstring, "hour=3")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the context carries fields", func() {
			ctx = WithFields(ctx, String("request_id", "req-1"))
			ctx = WithFields(ctx, String("route", "bazi"))
			Named("api").Warn(ctx, "slow")

			Convey("Then they are included in order", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "logger=api")
				So(out, ShouldContainSubstring, "request_id=req-1")
				So(out, ShouldContainSubstring, "route=bazi")
			})
		})

		Convey("When the level filters a message", func() {
			So(SetLevelString("error"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "also hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(Init(), ShouldBeNil)

		Convey("Then known names are accepted", func() {
			for _, lvl := range []string{"debug", "INFO", "", "warn", "warning", "error"} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("And unknown names are rejected", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}
