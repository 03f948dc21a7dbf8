package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/leaderforge/leaderforge/internal/domain/fault"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultQueryTimeout = 5 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	player_id    TEXT NOT NULL REFERENCES players(id),
	score        INTEGER NOT NULL,
	mode         TEXT NOT NULL DEFAULT 'solo',
	submitted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_player ON submissions(player_id);

CREATE TABLE IF NOT EXISTS leaderboard (
	player_id     TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	total_score   INTEGER NOT NULL,
	session_count INTEGER NOT NULL,
	last_updated  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leaderboard_score_desc ON leaderboard(total_score DESC);
`

// upsertQuery is the single atomic increment-or-insert statement. The row
// keeps its rowid across conflicts, so leaderboard rowid order is creation
// order and serves as the deterministic top-N tie-break.
const upsertQuery = `
INSERT INTO leaderboard (player_id, username, total_score, session_count, last_updated)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT(player_id) DO UPDATE SET
	total_score   = total_score + excluded.total_score,
	session_count = session_count + 1,
	last_updated  = excluded.last_updated
RETURNING total_score, session_count`

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the database at dsn and ensures the
// schema exists.
func NewSQLiteStore(ctx context.Context, dsn string, opts ...StoreOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Shared-cache in-memory databases misbehave with concurrent
	// connections; serialize access for them.
	if strings.Contains(dsn, "memory") {
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{
		db:           db,
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return s, nil
}

// StoreOption applies a configuration option to the SQLiteStore.
type StoreOption func(*SQLiteStore)

// WithQueryTimeout bounds each database call. Zero disables the bound.
func WithQueryTimeout(d time.Duration) StoreOption {
	return func(s *SQLiteStore) {
		s.queryTimeout = d
	}
}

// DB exposes the underlying handle so sibling adapters (identity registry,
// seeding) can share one database.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Submit implements Store.Submit.
func (s *SQLiteStore) Submit(ctx context.Context, sub model.ScoreSubmission, username string) (model.PlayerAggregate, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PlayerAggregate{}, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("begin submit tx: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (id, player_id, score, mode, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.PlayerID, sub.ScoreDelta, sub.Mode, sub.SubmittedAt.UnixMilli(),
	); err != nil {
		metrics.RecordErrorByComponent("repository", "submission_insert")
		return model.PlayerAggregate{}, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("insert submission: %w", err))
	}

	agg := model.PlayerAggregate{
		PlayerID:    sub.PlayerID,
		Username:    username,
		LastUpdated: sub.SubmittedAt,
	}
	if err := tx.QueryRowContext(ctx, upsertQuery,
		sub.PlayerID, username, sub.ScoreDelta, sub.SubmittedAt.UnixMilli(),
	).Scan(&agg.TotalScore, &agg.SessionCount); err != nil {
		metrics.RecordErrorByComponent("repository", "aggregate_upsert")
		return model.PlayerAggregate{}, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("upsert aggregate: %w", err))
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordErrorByComponent("repository", "commit")
		return model.PlayerAggregate{}, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("commit submit tx: %w", err))
	}
	metrics.RecordSubmissionPersisted()
	return agg, nil
}

// Aggregate implements Store.Aggregate.
func (s *SQLiteStore) Aggregate(ctx context.Context, playerID string) (model.PlayerAggregate, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var (
		agg         model.PlayerAggregate
		lastUpdated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id, username, total_score, session_count, last_updated
		 FROM leaderboard WHERE player_id = ?`, playerID,
	).Scan(&agg.PlayerID, &agg.Username, &agg.TotalScore, &agg.SessionCount, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayerAggregate{}, fault.Wrap(fault.ErrNotFound, ErrNoAggregate)
	}
	if err != nil {
		return model.PlayerAggregate{}, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("query aggregate: %w", err))
	}
	agg.LastUpdated = time.UnixMilli(lastUpdated)
	return agg, nil
}

// TopN implements Store.TopN. Rows come back ordered by total score
// descending with rowid (creation order) breaking ties.
func (s *SQLiteStore) TopN(ctx context.Context, n int) ([]model.PlayerAggregate, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, fault.Wrap(fault.ErrInvalidInput, ErrInvalidLimit)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, username, total_score, session_count, last_updated
		 FROM leaderboard
		 ORDER BY total_score DESC, rowid ASC
		 LIMIT ?`, n)
	if err != nil {
		return nil, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("query top-n: %w", err))
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.PlayerAggregate, 0, n)
	for rows.Next() {
		var (
			agg         model.PlayerAggregate
			lastUpdated int64
		)
		if err := rows.Scan(&agg.PlayerID, &agg.Username, &agg.TotalScore, &agg.SessionCount, &lastUpdated); err != nil {
			return nil, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("scan top-n row: %w", err))
		}
		agg.LastUpdated = time.UnixMilli(lastUpdated)
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("iterate top-n rows: %w", err))
	}
	return out, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leaderboard`).Scan(&count); err != nil {
		return 0, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("count players: %w", err))
	}
	return count, nil
}

// CountGreater implements Store.CountGreater.
func (s *SQLiteStore) CountGreater(ctx context.Context, score int64) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leaderboard WHERE total_score > ?`, score,
	).Scan(&count); err != nil {
		return 0, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("count greater totals: %w", err))
	}
	return count, nil
}

// Ping implements Store.Ping.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fault.Wrap(fault.ErrUnavailable, fmt.Errorf("ping database: %w", err))
	}
	return nil
}

// Close implements Store.Close.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
