package store

import (
	"errors"
	"fmt"
)

// NotFoundError returns a new ErrNotFound
func NotFoundError(what string) error {
	return ErrNotFound{what}
}

// ErrNotFound is the error returned when something requested could not be found.
// This error should not be retried.
type ErrNotFound struct {
	what string
}

func (err ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", err.what)
}

// IsNotFound reports whether err is, or wraps, an ErrNotFound.
func IsNotFound(err error) bool {
	return errors.As(err, &ErrNotFound{})
}

// InvalidTransitionError is the error returned when a queue item is moved to a
// status its current status does not allow.
type InvalidTransitionError struct {
	ID   int64
	From Status
	To   Status
}

func (err InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move input %d from %s to %s", err.ID, err.From, err.To)
}

// IsInvalidTransition reports whether err is, or wraps, an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	return errors.As(err, &InvalidTransitionError{})
}
