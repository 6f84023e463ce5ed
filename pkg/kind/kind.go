// Package kind classifies core errors by the stable kind names used in
// log/metric fields. Kind strings are never surfaced to end users.
package kind

import "fmt"

// Kind names a class of failure the core can produce. Values are stable
// and used in log fields, not in user-facing messages.
type Kind string

const (
	// Config marks a bad inline or file config; recoverable by clamping/defaulting.
	Config Kind = "config"
	// Judge marks a judge failure or timeout; recoverable via fallback review.
	Judge Kind = "codex"
	// Filesystem marks a persistence or context-building failure; skipped with a warning.
	Filesystem Kind = "filesystem"
	// Session marks a missing or corrupt session; recoverable via recreate.
	Session Kind = "session"
	// QueueFull marks an enqueue refused for capacity; surfaced to the caller.
	QueueFull Kind = "queue_full"
	// Workflow marks a step violation or missing required output; surfaced.
	Workflow Kind = "workflow"
	// Validation marks a criteria/workflow invariant broken at construction; fatal.
	Validation Kind = "validation"
)

// Error wraps an underlying error with its stable kind, so callers can
// branch on Kind via errors.As while the kind stays out of user messages.
type Error struct {
	Kind Kind
	Err  error
}

// New wraps err with the given kind. Returns nil if err is nil.
func New(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	var ke *Error
	for err != nil {
		if e, ok := err.(*Error); ok { //nolint:errorlint // explicit unwrap loop below handles wrapping
			ke = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ke != nil && ke.Kind == k
}
