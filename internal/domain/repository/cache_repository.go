package repository

import (
	"context"
	"time"
)

// CacheRepository is an optional staleness-tolerant cache for metrics
// responses. A nil implementation is valid; callers must treat cache
// failures as misses.
type CacheRepository interface {
	// Get returns the cached value, or (nil, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
