package cache

import (
	"context"
	"time"
)

// Store is the response cache consulted before any provider call.
// Implemented by the in-memory store (single process) and Redis (shared).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
