package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// entry is a stored value with its expiry instant.
type entry struct {
	value    []byte
	expireAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryBackend is an in-process Backend. It serves deployments without a
// cache server and keeps tests hermetic. Expired entries are dropped lazily
// on read and swept during prefix deletions.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryBackend constructs an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]entry)}
}

// Get implements Backend.Get.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if e.expired(time.Now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if cur, still := m.entries[key]; still && cur.expired(time.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set implements Backend.Set.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = entry{value: stored, expireAt: expireAt}
	m.mu.Unlock()
	return nil
}

// Delete implements Backend.Delete.
func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

// DeleteByPrefix implements Backend.DeleteByPrefix.
func (m *MemoryBackend) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			removed++
			continue
		}
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	return removed, nil
}

// Ping implements Backend.Ping. The in-process backend is always live.
func (m *MemoryBackend) Ping(context.Context) error { return nil }

// Len returns the number of stored entries, counting expired ones not yet
// swept. Test helper.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
