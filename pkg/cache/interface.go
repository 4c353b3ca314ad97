// Package cache provides a small key/value cache used for quote results,
// with in-memory and Redis backends behind a common interface.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultTTL is the cache lifetime applied when callers pass ttl <= 0.
const DefaultTTL = 5 * time.Minute
