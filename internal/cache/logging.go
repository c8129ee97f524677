package cache

import (
	"context"
	"strings"
	"time"

	"stride-core/internal/metrics"
	"stride-core/pkg/logging/logging"

	"go.uber.org/zap"
)

// LoggingStore wraps a Store with logging + metrics.
type LoggingStore struct {
	inner Store
}

// NewLoggingStore returns a cache that logs and records metrics.
func NewLoggingStore(inner Store) Store {
	return &LoggingStore{inner: inner}
}

func (c *LoggingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := c.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
		metrics.CacheHitsTotal.Inc()
	}

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	}

	if parts, ok := parseFingerprintKey(key); ok {
		fields = append(fields,
			zap.String("user_id", parts.userID),
			zap.String("kind", parts.kind),
			zap.String("hash", parts.hash),
		)
	}

	if err != nil {
		logger.Error("artifact_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("artifact_cache_get", fields...)
	}

	return value, ok, err
}

func (c *LoggingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.Duration("ttl", ttl),
		zap.Float64("latency_ms", latencyMs),
	}

	if parts, ok := parseFingerprintKey(key); ok {
		fields = append(fields,
			zap.String("user_id", parts.userID),
			zap.String("kind", parts.kind),
			zap.String("hash", parts.hash),
		)
	}

	if err != nil {
		logger.Error("artifact_cache_set", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("artifact_cache_set", fields...)
	}

	return err
}

type fingerprintKeyParts struct {
	userID string
	kind   string
	hash   string
}

// Expecting: af:<USER_ID>:<KIND>:<HASH>
func parseFingerprintKey(key string) (fingerprintKeyParts, bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 4 || parts[0] != "af" {
		return fingerprintKeyParts{}, false
	}
	return fingerprintKeyParts{
		userID: parts[1],
		kind:   parts[2],
		hash:   parts[3],
	}, true
}
