package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSubscriber signals a unique-index violation on email.
	// Handlers treat it as a client error, not a storage fault.
	ErrDuplicateSubscriber = errors.New("subscriber already exists")

	// ErrInvalidToken signals a confirmation token that was never issued.
	ErrInvalidToken = errors.New("invalid subscription token")

	ErrNotFound = errors.New("subscriber not found")
)

// ValidationError names the offending input field. It maps to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
