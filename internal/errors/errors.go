package errors

import (
	"errors"
	"fmt"
)

// Common error types for the BFF gateway
var (
	// Auth flow errors
	ErrStateMismatch = errors.New("state mismatch")
	ErrInvalidState  = errors.New("invalid state")
	ErrTokenExchange = errors.New("token exchange failed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Authorization errors
	ErrPersonaDenied = errors.New("persona not permitted")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
