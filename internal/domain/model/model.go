// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/leaderforge/leaderforge/internal/domain/fault"
)

// Submission bounds. Scores outside [0, MaxScoreDelta] are rejected before
// anything is persisted.
const (
	MaxScoreDelta = 1_000_000
	MaxModeLength = 50

	// DefaultMode is assumed when a submission carries no mode tag.
	DefaultMode = "solo"
)

// ScoreSubmission is a single accepted scoring event. It is persisted as an
// immutable audit record and never mutated afterwards.
type ScoreSubmission struct {
	ID          string    // audit record id
	PlayerID    string    // subject player identifier
	ScoreDelta  int64     // non-negative score increment
	Mode        string    // game mode tag, e.g. "solo"
	SubmittedAt time.Time // submission time
}

// Validate checks the submission against the accepted bounds. The returned
// error wraps fault.ErrInvalidInput.
func (s ScoreSubmission) Validate() error {
	switch {
	case strings.TrimSpace(s.PlayerID) == "":
		return fault.Wrap(fault.ErrInvalidInput, fmt.Errorf("missing player id"))
	case s.ScoreDelta < 0:
		return fault.Wrap(fault.ErrInvalidInput, fmt.Errorf("score must be non-negative, got %d", s.ScoreDelta))
	case s.ScoreDelta > MaxScoreDelta:
		return fault.Wrap(fault.ErrInvalidInput, fmt.Errorf("score must be at most %d, got %d", MaxScoreDelta, s.ScoreDelta))
	case len(s.Mode) > MaxModeLength:
		return fault.Wrap(fault.ErrInvalidInput, fmt.Errorf("mode tag longer than %d characters", MaxModeLength))
	}
	return nil
}

// PlayerAggregate is a player's cumulative leaderboard row. TotalScore is
// the sum of all accepted submissions since creation; SessionCount is the
// count of accepted submissions. Mutated only by the submission pipeline.
type PlayerAggregate struct {
	PlayerID     string
	Username     string
	TotalScore   int64
	SessionCount int64
	LastUpdated  time.Time
}

// Standing is a player's derived rank view. Rank is a dense rank: players
// with equal totals share it, computed as 1 + count(strictly greater
// totals).
type Standing struct {
	PlayerID     string  `json:"player_id"`
	Username     string  `json:"username"`
	Rank         int     `json:"rank"`
	TotalScore   int64   `json:"total_score"`
	SessionCount int64   `json:"session_count"`
	Percentile   float64 `json:"percentile"`
	TotalPlayers int     `json:"total_players"`
}

// BoardEntry is one row of a top-N listing. Rank here is positional: the
// 1-based index in the score-descending ordering, which can diverge from
// the dense rank in Standing when totals tie.
type BoardEntry struct {
	Rank         int    `json:"rank"`
	PlayerID     string `json:"player_id"`
	Username     string `json:"username"`
	TotalScore   int64  `json:"total_score"`
	SessionCount int64  `json:"session_count"`
}

// Board is a top-N snapshot of the leaderboard.
type Board struct {
	Entries      []BoardEntry `json:"top_players"`
	TotalPlayers int          `json:"total_players"`
	GeneratedAt  time.Time    `json:"timestamp"`
}

// Receipt is the pipeline's answer to an accepted submission. Rank may be 0
// when the post-commit rank lookup degraded; the submission is durable
// either way.
type Receipt struct {
	PlayerID     string
	TotalScore   int64
	SessionCount int64
	Rank         int
}

// Health reports component liveness as probed by the health endpoint.
type Health struct {
	Database bool `json:"database"`
	Cache    bool `json:"cache"`
}

// Degraded reports whether any probed component failed.
func (h Health) Degraded() bool {
	return !h.Database || !h.Cache
}
