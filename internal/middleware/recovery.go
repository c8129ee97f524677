package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"stride-core/pkg/logging/logging"
)

// Recoverer turns a handler panic into a logged 500 response instead of a
// dropped connection. The core never panics across a package boundary, so
// anything caught here is a handler-level bug worth the stack trace.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logging.L(r.Context()).Error("panic in handler",
						zap.Any("panic", v),
						zap.ByteString("stack", debug.Stack()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal_server_error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
