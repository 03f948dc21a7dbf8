// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leaderforge/leaderforge/internal/adapters/cache"
	"github.com/leaderforge/leaderforge/internal/adapters/registry"
	"github.com/leaderforge/leaderforge/internal/adapters/repository"
	"github.com/leaderforge/leaderforge/internal/domain/fault"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/domain/rank"
	"github.com/leaderforge/leaderforge/internal/domain/ratelimit"
	"github.com/leaderforge/leaderforge/pkg/logger"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// Pipeline states for a single submission. Persistence and aggregation
// share one transaction, so their states flip together on commit.
type pipelineState string

const (
	stateValidated        pipelineState = "validated"
	stateAggregated       pipelineState = "aggregated"
	stateCacheInvalidated pipelineState = "cache_invalidated"
	stateRankComputed     pipelineState = "rank_computed"
	stateDone             pipelineState = "done"
	stateFailed           pipelineState = "failed"
)

// ReadPath is the cached read side the pipeline and query operations use.
// *cache.Coordinator satisfies it.
type ReadPath interface {
	Standing(ctx context.Context, playerID string) (model.Standing, error)
	Board(ctx context.Context, limit int) (model.Board, error)
	InvalidatePlayer(ctx context.Context, playerID string)
	Ping(ctx context.Context) error
}

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	players   registry.Registry
	reads     ReadPath
	admission *ratelimit.Limiter

	// Configuration
	databaseDSN       string
	redisAddr         string
	topTTL            time.Duration
	rankTTL           time.Duration
	ttlJitter         float64
	rateLimit         int
	rateLimitWindow   time.Duration
	storeQueryTimeout time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDatabaseDSN sets the SQLite DSN.
func WithDatabaseDSN(dsn string) Option {
	return func(s *Service) {
		if dsn != "" {
			s.databaseDSN = dsn
		}
	}
}

// WithRedisAddr selects the Redis cache backend. Empty keeps the in-process
// backend.
func WithRedisAddr(addr string) Option {
	return func(s *Service) {
		s.redisAddr = addr
	}
}

// WithCacheTTLs sets the top-N and per-player cache lifetimes.
func WithCacheTTLs(top, rank time.Duration) Option {
	return func(s *Service) {
		if top > 0 {
			s.topTTL = top
		}
		if rank > 0 {
			s.rankTTL = rank
		}
	}
}

// WithCacheTTLJitter spreads cache expiries by up to fraction of the TTL.
func WithCacheTTLJitter(fraction float64) Option {
	return func(s *Service) {
		s.ttlJitter = fraction
	}
}

// WithRateLimit configures per-client admission control.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Service) {
		if requests > 0 {
			s.rateLimit = requests
		}
		if window > 0 {
			s.rateLimitWindow = window
		}
	}
}

// WithStoreQueryTimeout bounds each database call.
func WithStoreQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeQueryTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithStore injects a pre-built store. Used by tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRegistry injects a pre-built identity registry. Used by tests.
func WithRegistry(players registry.Registry) Option {
	return func(s *Service) {
		s.players = players
	}
}

// WithReadPath injects a pre-built read path. Used by tests.
func WithReadPath(reads ReadPath) Option {
	return func(s *Service) {
		s.reads = reads
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		databaseDSN:       "file:leaderforge.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		topTTL:            30 * time.Second,
		rankTTL:           60 * time.Second,
		rateLimit:         1000,
		rateLimitWindow:   time.Minute,
		storeQueryTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	if s.store == nil {
		store, err := repository.NewSQLiteStore(ctx, s.databaseDSN,
			repository.WithQueryTimeout(s.storeQueryTimeout),
		)
		if err != nil {
			return fmt.Errorf("open aggregate store: %w", err)
		}
		s.store = store
		if s.players == nil {
			s.players = registry.NewSQLRegistry(store.DB())
		}
		s.logger.Info(ctx, "using sqlite aggregate store")
	}
	if s.players == nil {
		return fmt.Errorf("no identity registry configured")
	}

	if s.reads == nil {
		var backend cache.Backend
		if s.redisAddr != "" {
			backend = cache.NewRedisBackend(s.redisAddr)
			s.logger.Info(ctx, "using redis cache backend", logger.String("addr", s.redisAddr))
		} else {
			backend = cache.NewMemoryBackend()
			s.logger.Info(ctx, "using in-process cache backend")
		}
		s.reads = cache.NewCoordinator(backend, rank.NewCalculator(s.store),
			cache.WithTopTTL(s.topTTL),
			cache.WithRankTTL(s.rankTTL),
			cache.WithTTLJitter(s.ttlJitter),
			cache.WithLogger(s.logger.Named("cache")),
		)
	}

	s.admission = ratelimit.New(
		ratelimit.WithLimit(s.rateLimit),
		ratelimit.WithWindow(s.rateLimitWindow),
	)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("rateLimit", s.rateLimit),
		logger.Duration("topTTL", s.topTTL),
		logger.Duration("rankTTL", s.rankTTL),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service...")

	if s.admission != nil {
		if err := s.admission.Close(); err != nil {
			s.logger.Warn(ctx, "closing rate limiter failed", logger.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing store failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// Admission exposes the rate limiter to the HTTP middleware.
func (s *Service) Admission() *ratelimit.Limiter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admission
}

// SubmitScore runs one submission through the pipeline. Once the store
// transaction commits the submission is durable: later failures degrade the
// response (omitted rank) but never report failure.
func (s *Service) SubmitScore(ctx context.Context, playerID string, delta int64, mode string) (model.Receipt, error) {
	if mode == "" {
		mode = model.DefaultMode
	}
	sub := model.ScoreSubmission{
		ID:          uuid.NewString(),
		PlayerID:    playerID,
		ScoreDelta:  delta,
		Mode:        mode,
		SubmittedAt: time.Now().UTC(),
	}

	// Step 1: validate input and identity.
	if err := sub.Validate(); err != nil {
		metrics.RecordSubmissionRejected("invalid_input")
		s.logStep(ctx, sub.ID, stateFailed, logger.Error(err))
		return model.Receipt{}, err
	}
	known, err := s.players.Exists(ctx, playerID)
	if err != nil {
		metrics.RecordSubmissionRejected("registry_unavailable")
		s.logStep(ctx, sub.ID, stateFailed, logger.Error(err))
		return model.Receipt{}, fmt.Errorf("check player identity: %w", err)
	}
	if !known {
		metrics.RecordSubmissionRejected("unknown_player")
		s.logStep(ctx, sub.ID, stateFailed, logger.String("playerID", playerID))
		return model.Receipt{}, fault.Wrap(fault.ErrNotFound, fmt.Errorf("player %s not found", playerID))
	}
	username, err := s.players.DisplayName(ctx, playerID)
	if err != nil {
		metrics.RecordSubmissionRejected("registry_unavailable")
		s.logStep(ctx, sub.ID, stateFailed, logger.Error(err))
		return model.Receipt{}, fmt.Errorf("resolve display name: %w", err)
	}
	s.logStep(ctx, sub.ID, stateValidated, logger.String("playerID", playerID))

	// Steps 2-3: append the audit record and apply the aggregate, one
	// transaction. A caller cancellation up to here aborts cleanly.
	agg, err := s.store.Submit(ctx, sub, username)
	if err != nil {
		metrics.RecordSubmissionRejected("store")
		s.logStep(ctx, sub.ID, stateFailed, logger.Error(err))
		return model.Receipt{}, fmt.Errorf("persist submission: %w", err)
	}
	s.logStep(ctx, sub.ID, stateAggregated,
		logger.Int64("totalScore", agg.TotalScore),
		logger.Int64("sessionCount", agg.SessionCount),
	)

	// The submission is durable. Steps 4-5 run detached from the caller's
	// cancellation so an aborted request cannot skip invalidation.
	detached := context.WithoutCancel(ctx)

	// Step 4: best-effort cache invalidation.
	s.reads.InvalidatePlayer(detached, playerID)
	s.logStep(ctx, sub.ID, stateCacheInvalidated)

	receipt := model.Receipt{
		PlayerID:     playerID,
		TotalScore:   agg.TotalScore,
		SessionCount: agg.SessionCount,
	}

	// Step 5: rank for the response, best-effort.
	if standing, err := s.reads.Standing(detached, playerID); err != nil {
		s.logger.Warn(ctx, "rank lookup degraded after accepted submission",
			logger.String("submissionID", sub.ID),
			logger.Error(err),
		)
	} else {
		receipt.Rank = standing.Rank
		s.logStep(ctx, sub.ID, stateRankComputed, logger.Int("rank", standing.Rank))
	}

	metrics.RecordSubmissionAccepted()
	s.logStep(ctx, sub.ID, stateDone)
	return receipt, nil
}

// GetTop serves a top-N board through the cached read path.
func (s *Service) GetTop(ctx context.Context, limit int) (model.Board, error) {
	board, err := s.reads.Board(ctx, limit)
	if err != nil {
		return model.Board{}, fmt.Errorf("get top %d: %w", limit, err)
	}
	metrics.UpdateTotalPlayers(board.TotalPlayers)
	return board, nil
}

// GetRank serves a player's standing through the cached read path.
func (s *Service) GetRank(ctx context.Context, playerID string) (model.Standing, error) {
	if playerID == "" {
		return model.Standing{}, fault.Wrap(fault.ErrInvalidInput, fmt.Errorf("missing player id"))
	}
	standing, err := s.reads.Standing(ctx, playerID)
	if err != nil {
		return model.Standing{}, fmt.Errorf("get rank of %s: %w", playerID, err)
	}
	return standing, nil
}

// CheckHealth probes the store and the cache backend.
func (s *Service) CheckHealth(ctx context.Context) model.Health {
	h := model.Health{Database: true, Cache: true}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error(ctx, "database health check failed", logger.Error(err))
		h.Database = false
	}
	if err := s.reads.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "cache health check failed", logger.Error(err))
		h.Cache = false
	}
	return h
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"rateLimit": s.rateLimit,
	}

	if s.started {
		if count, err := s.store.Count(context.Background()); err == nil {
			stats["totalPlayers"] = count
			metrics.UpdateTotalPlayers(count)
		}
		stats["activeClients"] = s.admission.ActiveClients()
	}
	return stats
}

func (s *Service) logStep(ctx context.Context, submissionID string, state pipelineState, fields ...logger.Field) {
	fields = append(fields,
		logger.String("submissionID", submissionID),
		logger.String("state", string(state)),
	)
	s.logger.Debug(ctx, "submission pipeline transition", fields...)
}
