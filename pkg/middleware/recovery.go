package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/solistore/checkout/pkg/logger"
)

const panicResponse = `{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`

// Recovery converts a handler panic into a 500 response. The stack trace and
// correlation ID go to the log, never to the client.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("correlation_id", logger.CorrelationIDFromContext(r.Context())),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(panicResponse))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
