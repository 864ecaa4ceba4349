package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/ranqr/internal/adapters/http/api"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request id middleware", t, func() {
		var seen string
		handler := api.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("X-Request-ID")
			w.WriteHeader(http.StatusNoContent)
		}))

		Convey("When a request arrives without an id", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then one is generated and echoed back", func() {
				So(seen, ShouldNotBeEmpty)
				So(rec.Header().Get("X-Request-ID"), ShouldEqual, seen)
			})
		})

		Convey("When a request carries its own id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "caller-chosen")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			Convey("Then the caller's id is kept", func() {
				So(seen, ShouldEqual, "caller-chosen")
				So(rec.Header().Get("X-Request-ID"), ShouldEqual, "caller-chosen")
			})
		})
	})
}
