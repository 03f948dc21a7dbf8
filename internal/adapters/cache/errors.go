package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	// ErrMiss marks an absent or expired key. Never surfaces past the
	// coordinator; it only drives the fall-through to the source.
	ErrMiss = errors.New("cache miss")
)
