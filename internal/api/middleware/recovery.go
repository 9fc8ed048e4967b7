package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/blaisecz/bioage-reset/internal/logger"
	"github.com/blaisecz/bioage-reset/pkg/problem"
)

// Recovery recovers from panics and returns a 500 problem.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", err,
						"stack", string(debug.Stack()),
					)
					problem.InternalError("An unexpected error occurred").Write(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
