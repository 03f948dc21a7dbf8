// Package fault defines the error taxonomy shared across the service.
//
// Every package wraps its failures around one of these sentinel kinds so
// that callers can classify errors with errors.Is without depending on the
// package that produced them.
package fault

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("op: %w", kind) or chain a cause
// with Wrap below.
var (
	// ErrNotFound marks lookups for unknown players.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks out-of-bounds scores and malformed identities.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable marks store or cache backends unreachable within their
	// timeout. Retryable from the caller's point of view.
	ErrUnavailable = errors.New("unavailable")

	// ErrRateLimited marks requests denied by admission control.
	ErrRateLimited = errors.New("rate limited")

	// ErrInternal marks invariant violations. Always logged at highest
	// severity; should never occur in normal operation.
	ErrInternal = errors.New("internal error")
)

// wrapped carries a sentinel kind alongside an underlying cause so that
// errors.Is matches both.
type wrapped struct {
	kind  error
	cause error
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.kind.Error()
	}
	return w.kind.Error() + ": " + w.cause.Error()
}

func (w *wrapped) Is(target error) bool {
	return errors.Is(w.kind, target)
}

func (w *wrapped) Unwrap() error { return w.cause }

// Wrap attaches a taxonomy kind to an underlying cause. A nil cause returns
// the kind itself.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &wrapped{kind: kind, cause: cause}
}
