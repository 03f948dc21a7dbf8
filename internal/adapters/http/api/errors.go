package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrInvalidLimit    = errors.New("limit must be a positive integer")
	ErrLimitExceeded   = errors.New("limit exceeds the maximum")
	ErrMissingPlayerID = errors.New("missing player id")
)
