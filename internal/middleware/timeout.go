package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stride-core/pkg/logging/logging"
)

// Timeout bounds one request end to end: the context is cancelled after d
// and a 504 is written if the handler has not finished by then. Generation
// calls dominate request time, so d must exceed the slowest provider chain.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			finished := make(chan struct{})
			go func() {
				next.ServeHTTP(w, r.WithContext(ctx))
				close(finished)
			}()

			select {
			case <-finished:
			case <-ctx.Done():
				logging.L(ctx).Warn("request deadline exceeded",
					zap.Duration("limit", d),
					zap.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				_, _ = w.Write([]byte(`{"error":"gateway_timeout"}`))
			}
		})
	}
}
