// Package registry adapts the player identity registry, an external
// collaborator of the leaderboard engine. The implementation here reads the
// players table of the shared database.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leaderforge/leaderforge/internal/domain/fault"
)

// Registry answers identity questions about players.
type Registry interface {
	// Exists reports whether playerID is a known identity.
	Exists(ctx context.Context, playerID string) (bool, error)

	// DisplayName returns the player's username.
	// Returns an error wrapping fault.ErrNotFound for unknown players.
	DisplayName(ctx context.Context, playerID string) (string, error)
}

// SQLRegistry implements Registry over the players table.
type SQLRegistry struct {
	db *sql.DB
}

// NewSQLRegistry wraps an existing database handle. The schema is owned by
// the repository package.
func NewSQLRegistry(db *sql.DB) *SQLRegistry {
	return &SQLRegistry{db: db}
}

// Exists implements Registry.Exists.
func (r *SQLRegistry) Exists(ctx context.Context, playerID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE id = ?`, playerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("query player: %w", err))
	}
	return true, nil
}

// DisplayName implements Registry.DisplayName.
func (r *SQLRegistry) DisplayName(ctx context.Context, playerID string) (string, error) {
	var username string
	err := r.db.QueryRowContext(ctx, `SELECT username FROM players WHERE id = ?`, playerID).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fault.Wrap(fault.ErrNotFound, fmt.Errorf("player %s not registered", playerID))
	}
	if err != nil {
		return "", fault.Wrap(fault.ErrUnavailable, fmt.Errorf("query username: %w", err))
	}
	return username, nil
}

// CreatePlayer registers a new identity and returns its id. Used by the
// seeding command and tests; the engine itself never creates identities.
func (r *SQLRegistry) CreatePlayer(ctx context.Context, username, email string) (string, error) {
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO players (id, username, email, created_at) VALUES (?, ?, ?, ?)`,
		id, username, email, time.Now().UnixMilli(),
	); err != nil {
		return "", fault.Wrap(fault.ErrUnavailable, fmt.Errorf("insert player: %w", err))
	}
	return id, nil
}
