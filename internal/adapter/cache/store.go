// Package cache provides byte-level response caches keyed by string.
package cache

import (
	"context"
	"time"
)

// Store caches opaque values with a per-entry TTL.
type Store interface {
	// Get returns the cached value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
