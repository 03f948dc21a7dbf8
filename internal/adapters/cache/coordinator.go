package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/pkg/logger"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// Key namespaces and default TTLs. Top boards refresh faster than
// individual standings because they are the hotter read.
const (
	topKeyPrefix  = "leaderboard:top:"
	rankKeyPrefix = "leaderboard:rank:"

	defaultTopTTL  = 30 * time.Second
	defaultRankTTL = 60 * time.Second
)

// Source produces fresh rank views on a cache miss.
type Source interface {
	RankOf(ctx context.Context, playerID string) (model.Standing, error)
	TopN(ctx context.Context, limit int) (model.Board, error)
}

// Coordinator is the read-through cache in front of the rank calculator.
// It owns every cache key; a backend failure on any path degrades to miss
// behavior and is logged and counted, never returned to the caller.
type Coordinator struct {
	backend Backend
	source  Source

	topTTL    time.Duration
	rankTTL   time.Duration
	ttlJitter float64 // fraction of the TTL, 0 disables

	log logger.Logger
}

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithTopTTL sets the top-N entry lifetime.
func WithTopTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.topTTL = ttl
		}
	}
}

// WithRankTTL sets the per-player standing lifetime.
func WithRankTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.rankTTL = ttl
		}
	}
}

// WithTTLJitter spreads expiries by up to fraction of the TTL in either
// direction, softening synchronized recomputation after broad
// invalidations. Off by default.
func WithTTLJitter(fraction float64) Option {
	return func(c *Coordinator) {
		if fraction > 0 && fraction < 1 {
			c.ttlJitter = fraction
		}
	}
}

// WithLogger sets a custom logger for the coordinator.
func WithLogger(log logger.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCoordinator builds a Coordinator over backend and source.
func NewCoordinator(backend Backend, source Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend: backend,
		source:  source,
		topTTL:  defaultTopTTL,
		rankTTL: defaultRankTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("cache")
	}
	return c
}

// Standing serves a player's rank view, read-through.
func (c *Coordinator) Standing(ctx context.Context, playerID string) (model.Standing, error) {
	key := rankKeyPrefix + playerID

	var cached model.Standing
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	fresh, err := c.source.RankOf(ctx, playerID)
	if err != nil {
		return model.Standing{}, err
	}
	c.fill(ctx, key, fresh, c.rankTTL)
	return fresh, nil
}

// Board serves a top-N listing, read-through. Each requested limit caches
// under its own key.
func (c *Coordinator) Board(ctx context.Context, limit int) (model.Board, error) {
	key := topKeyPrefix + strconv.Itoa(limit)

	var cached model.Board
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	fresh, err := c.source.TopN(ctx, limit)
	if err != nil {
		return model.Board{}, err
	}
	c.fill(ctx, key, fresh, c.topTTL)
	return fresh, nil
}

// InvalidatePlayer retires the player's standing entry and EVERY cached
// top-N variant. Any accepted write can change any player's relative rank,
// so dropping only some limits would under-invalidate and serve stale
// boards. Best-effort: failures are logged and counted.
func (c *Coordinator) InvalidatePlayer(ctx context.Context, playerID string) {
	if err := c.backend.Delete(ctx, rankKeyPrefix+playerID); err != nil {
		c.degrade(ctx, "invalidate rank entry", err)
	}
	removed, err := c.backend.DeleteByPrefix(ctx, topKeyPrefix)
	if err != nil {
		c.degrade(ctx, "invalidate top boards", err)
		return
	}
	metrics.RecordCacheInvalidation(removed + 1)
	c.log.Debug(ctx, "invalidated caches after write",
		logger.String("playerID", playerID),
		logger.Int("topKeysRemoved", removed),
	)
}

// Ping probes the backend. Used by the health endpoint only.
func (c *Coordinator) Ping(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("cache backend: %w", err)
	}
	return nil
}

// lookup unmarshals the entry under key into out and reports whether the
// read path can serve from cache. Backend failures count as misses.
func (c *Coordinator) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.degrade(ctx, "cache get", err)
		}
		metrics.RecordCacheMiss()
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A corrupt entry must not poison the read path; treat as miss.
		c.degrade(ctx, "cache decode", err)
		metrics.RecordCacheMiss()
		return false
	}
	metrics.RecordCacheHit()
	return true
}

// fill stores a freshly computed value, best-effort.
func (c *Coordinator) fill(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.degrade(ctx, "cache encode", err)
		return
	}
	if err := c.backend.Set(ctx, key, raw, c.jittered(ttl)); err != nil {
		c.degrade(ctx, "cache set", err)
	}
}

// degrade records a swallowed cache failure. The degradation policy is
// deliberate: the cache path must never escalate to the caller.
func (c *Coordinator) degrade(ctx context.Context, op string, err error) {
	metrics.RecordCacheDegraded()
	c.log.Warn(ctx, "cache degraded to miss behavior",
		logger.String("op", op),
		logger.Error(err),
	)
}

func (c *Coordinator) jittered(ttl time.Duration) time.Duration {
	if c.ttlJitter <= 0 {
		return ttl
	}
	spread := (rand.Float64()*2 - 1) * c.ttlJitter
	return time.Duration(float64(ttl) * (1 + spread))
}
