package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stride-core/internal/cache"
	"stride-core/internal/config"
	"stride-core/internal/handlers"
	"stride-core/internal/httpserver"
	"stride-core/internal/metrics"
	"stride-core/internal/orchestrator"
	"stride-core/internal/provider"
	"stride-core/internal/quota"
	"stride-core/internal/usage"
	"stride-core/pkg/logging/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("aicore exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Info("loaded config",
		zap.String("port", cfg.Server.Port),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Int("providers", len(cfg.Providers)),
		zap.String("usage_db", cfg.Usage.DBPath),
	)

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
		})

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.Cache.RedisAddr),
		)
	}

	// ----- Response cache -----
	store := cache.NewStore(cache.Config{
		Backend:         cfg.Cache.Backend,
		Prefix:          cfg.Cache.Prefix,
		MaxEntries:      cfg.Cache.MaxEntries,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, redisClient)
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	store = cache.NewLoggingStore(store)

	// ----- Quota limiter -----
	limiter := quota.NewLimiter(cfg.Quota.Limits(), logger)

	// ----- Providers, in priority order -----
	callers := make([]provider.Caller, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		caller, err := provider.NewClient(provider.Config{
			Name:            p.Name,
			BaseURL:         p.BaseURL,
			APIKey:          p.APIKey,
			Model:           p.Model,
			UpstreamTimeout: p.Timeout,
			MaxRetries:      p.MaxRetries,
		}, logger)
		if err != nil {
			return err
		}
		callers = append(callers, caller)
	}
	dispatcher, err := provider.NewDispatcher(callers, logger)
	if err != nil {
		return err
	}

	// ----- Usage accountant -----
	recorder, err := usage.NewRecorder(cfg.Usage.DBPath, cfg.Usage.Pricing, logger)
	if err != nil {
		return err
	}
	defer recorder.Close()

	// ----- Orchestration core -----
	core := orchestrator.New(store, limiter, dispatcher, recorder, logger)

	// ----- Handlers -----
	genHandler := handlers.NewGenerateHandler(core)
	usageHandler := handlers.NewUsageHandler(recorder)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, genHandler, usageHandler)

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	logger.Info("starting orchestration core",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
