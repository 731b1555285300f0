package middleware

import (
	"fmt"
	"net/http"

	"storelens/config"
	"storelens/log"
	"storelens/oops"

	"github.com/goccy/go-json"
)

func Recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil && rvr != http.ErrAbortHandler {
				err, ok := rvr.(error)
				if !ok {
					err = fmt.Errorf("%v", rvr)
				}

				sterr, ok := err.(*oops.Error)
				if !ok {
					sterr = oops.Wrap(err).(*oops.Error)
				}
				log.Error().Err(sterr).Str("path", r.URL.Path).Msg("Panic in handler")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				body := `{"error":"internal server error"}`
				if config.Cfg.Env.IsDevOrTest() {
					// Panic detail in the response is a dev convenience, never
					// shown in production
					if detail, jsonErr := json.Marshal(map[string]string{
						"error": sterr.Inner.Error(),
					}); jsonErr == nil {
						body = string(detail)
					}
				}
				fmt.Fprint(w, body)
			}
		}()

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
