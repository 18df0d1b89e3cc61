package errors

import (
	"errors"
	"fmt"
)

// Common error types for the backend
var (
	// Authentication errors
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInsufficientAccess = errors.New("insufficient clearance")
	ErrPasswordMismatch   = errors.New("current password does not match")
	ErrPasswordUnchanged  = errors.New("new password must differ from current password")
	ErrPasswordTooShort   = errors.New("new password is too short")

	// Configuration errors
	ErrMissingConfigValue   = errors.New("missing configuration value")
	ErrInvalidConfigValue   = errors.New("invalid configuration value")
	ErrUnsupportedCacheKind = errors.New("unsupported clearance cache")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
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
