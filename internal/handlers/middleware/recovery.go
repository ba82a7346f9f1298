package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/nkiryanov/ridehail/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// RecoveryMiddleware turns a panic in handler into 500 response
func RecoveryMiddleware(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					render.Error(w, "unknown", "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
