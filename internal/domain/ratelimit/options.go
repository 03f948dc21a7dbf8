package ratelimit

import "time"

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithLimit sets the maximum number of requests admitted per window.
func WithLimit(limit int) Option {
	return func(l *Limiter) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithWindow sets the sliding window duration.
func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithGCInterval sets how often idle client windows are dropped. Intervals
// shorter than the window are raised to the window so entries are never
// collected while still countable.
func WithGCInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		if interval > 0 {
			l.gcInterval = interval
		}
	}
}
