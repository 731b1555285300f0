package middleware

import (
	"net/http"
	"time"

	"storelens/log"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger should come before Recoverer
func Logger(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t1 := time.Now()

		path := r.URL.Path
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(t1)).
				Str("remote_addr", r.RemoteAddr).
				Msg("Request")
		}()

		next.ServeHTTP(ww, r)
	}
	return http.HandlerFunc(fn)
}
