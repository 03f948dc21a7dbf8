package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNoAggregate  = errors.New("player has no aggregate")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
