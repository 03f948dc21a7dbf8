// Package repository defines the aggregate store contract and its SQLite
// implementation.
package repository

import (
	"context"

	"github.com/leaderforge/leaderforge/internal/domain/model"
)

// Store provides durable access to player aggregates and the append-only
// submission log.
type Store interface {
	// Submit appends the raw submission record and applies the aggregate
	// upsert in a single transaction: either both persist or neither does.
	// A new player starts at total = delta, session_count = 1; an existing
	// one gets total += delta, session_count += 1 and a refreshed
	// last_updated. The upsert is one conditional insert-or-increment
	// statement, never a read followed by a write.
	Submit(ctx context.Context, sub model.ScoreSubmission, username string) (model.PlayerAggregate, error)

	// Aggregate returns the current aggregate for a player.
	// Returns ErrNoAggregate when the player has never submitted.
	Aggregate(ctx context.Context, playerID string) (model.PlayerAggregate, error)

	// TopN returns the first n aggregates ordered by total score descending,
	// ties broken by creation order (stable and deterministic).
	TopN(ctx context.Context, n int) ([]model.PlayerAggregate, error)

	// Count returns the number of players holding an aggregate.
	Count(ctx context.Context) (int, error)

	// CountGreater returns how many players hold a total strictly greater
	// than score. Dense rank is 1 + CountGreater.
	CountGreater(ctx context.Context, score int64) (int, error)

	// Ping probes the underlying database.
	Ping(ctx context.Context) error

	// Close releases the underlying database handle.
	Close() error
}
