// Package cache coordinates the fast read path in front of the aggregate
// store and rank calculator.
package cache

import (
	"context"
	"time"
)

// Backend is the key-value store the coordinator writes through to. Both
// implementations expire entries by TTL and support prefix-scoped bulk
// deletion, which the write path relies on to retire every cached top-N
// variant at once.
type Backend interface {
	// Get returns the stored value, or ErrMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix removes every key starting with prefix and returns the
	// number removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// Ping probes backend liveness.
	Ping(ctx context.Context) error
}
