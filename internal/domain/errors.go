package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound is returned when an event lookup by id misses
	ErrEventNotFound = errors.New("event not found")
	// ErrDuplicateURL is returned when creating an event whose originalUrl already exists
	ErrDuplicateURL = errors.New("event with this original url already exists")
	// ErrInvalidTransition is returned when a lifecycle trigger is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
