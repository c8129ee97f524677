package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"stride-core/internal/handlers"
	"stride-core/internal/metrics"
	"stride-core/internal/middleware"
)

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, gen *handlers.GenerateHandler, usageH *handlers.UsageHandler) {

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())               // panic recovery
	r.Use(middleware.Timeout(90 * time.Second)) // generation calls are slow
	r.Use(middleware.MaxBodySize(512 * 1024))   // 512 KB max body

	// routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", gen.Generate)
		r.Get("/usage/{userID}", usageH.Summary)
	})

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
