package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by *Error via errors.Is.
var (
	// ErrRateLimited indicates the upstream rejected the call with a rate-limit status.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a network failure, timeout or 5xx response.
	ErrTransient = errors.New("transient upstream error")

	// ErrFatal indicates a non-retryable failure such as 401/403/404 or a canceled context.
	ErrFatal = errors.New("fatal upstream error")
)

// Error describes a failed upstream call after the retry policy gave up.
type Error struct {
	Upstream string
	Kind     Kind
	Status   int
	Msg      string
	cause    error
}

// Error returns a message that never contains configured secrets.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (http %d): %s", e.Upstream, e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Upstream, e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrFatal:
		return e.Kind == KindFatal
	}
	return false
}

// Retryable reports whether err is a rate-limit or transient failure.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
