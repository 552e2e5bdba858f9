package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a mux with the site registered", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		Convey("Then the home page is served at /", func() {
			w := get("/")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "天机阁")
		})

		Convey("And every page and asset is embedded", func() {
			for _, p := range []string{"/fortune.html", "/artifacts.html", "/master.html", "/style.css", "/fortune.js", "/master.js"} {
				So(get(p).Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("And the fortune page talks to the reading API", func() {
			So(get("/fortune.js").Body.String(), ShouldContainSubstring, "/api/bazi")
		})

		Convey("And unknown paths are not found", func() {
			So(get("/nope.html").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then registering panics", func() {
			So(func() { Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
