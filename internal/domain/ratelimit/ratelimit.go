// Package ratelimit implements per-client sliding-window admission control.
//
// One window is kept per client identity (typically the source address). A
// request is admitted when fewer than limit requests were recorded inside
// the trailing window; rejected requests are never recorded, so a client
// hammering the API cannot extend its own lockout.
package ratelimit

import (
	"sync"
	"time"

	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// Default limiter configuration constants.
const (
	defaultLimit      = 1000
	defaultWindow     = time.Minute
	defaultGCInterval = time.Minute
)

// Limiter is a local, in-process sliding-window rate limiter. It offers no
// cross-instance guarantee; a multi-instance deployment needs a shared
// counter service instead.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time // client id -> accepted timestamps, oldest first

	limit      int
	window     time.Duration
	gcInterval time.Duration

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New constructs a Limiter and starts its garbage-collection loop. Callers
// own the lifecycle and must Close it.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		windows:    make(map[string][]time.Time),
		limit:      defaultLimit,
		window:     defaultWindow,
		gcInterval: defaultGCInterval,
		stopCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	// A collection pass more frequent than the window could drop entries
	// that still count against a client.
	if l.gcInterval < l.window {
		l.gcInterval = l.window
	}

	l.wg.Add(1)
	go l.gcLoop()

	return l
}

// Allow reports whether clientID may proceed at instant now, recording the
// request when admitted. Prune, check, record — in that order.
func (l *Limiter) Allow(clientID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := l.prune(clientID, now)
	if len(pruned) >= l.limit {
		l.windows[clientID] = pruned
		metrics.RecordRateLimitRejection()
		return false
	}
	l.windows[clientID] = append(pruned, now)
	return true
}

// Remaining returns how many requests clientID may still issue inside the
// current window. Used for observability headers; does not record anything.
func (l *Limiter) Remaining(clientID string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := l.prune(clientID, now)
	l.windows[clientID] = pruned

	remaining := l.limit - len(pruned)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Limit returns the configured per-window request limit.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration { return l.window }

// ActiveClients returns the number of client windows currently tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Close stops the garbage-collection goroutine.
func (l *Limiter) Close() error {
	select {
	case <-l.stopCh:
		// already closed
	default:
		close(l.stopCh)
	}
	l.wg.Wait()
	return nil
}

// prune drops timestamps older than the trailing window. Callers hold l.mu.
func (l *Limiter) prune(clientID string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	ts := l.windows[clientID]
	// Timestamps are appended in order, so find the first one still inside
	// the window and keep the tail.
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func (l *Limiter) gcLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.gc(time.Now())
		}
	}
}

// gc removes clients whose window is empty, bounding memory to active
// clients.
func (l *Limiter) gc(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.windows {
		if pruned := l.prune(id, now); len(pruned) == 0 {
			delete(l.windows, id)
		} else {
			l.windows[id] = pruned
		}
	}
	metrics.UpdateRateLimitClients(len(l.windows))
}
