package auth

import apperrors "github.com/robodex/robodex-backend/internal/errors"

var (
	// ErrUnauthenticated covers a missing header, a foreign scheme, a bad
	// signature and an expired credential alike.
	ErrUnauthenticated       = apperrors.ErrUnauthenticated
	ErrInsufficientClearance = apperrors.ErrInsufficientAccess
)
