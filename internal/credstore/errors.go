package credstore

import (
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when no user matches the lookup, including
// reset token lookups whose expiry has passed.
var ErrUserNotFound = errors.New("user not found")

// ValidationError reports a field that violates the account schema.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DuplicateKeyError reports which unique field an account creation collided on.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}
