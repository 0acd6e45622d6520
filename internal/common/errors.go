// Package common defines the sentinel errors shared by the Ermil server
// layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Input-shape errors. The dialog reprompts without calling anything.
	ErrValidation = errors.New("validation error")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Auth errors. ErrWrongPassword and ErrForbidden are both ErrUnauthorized.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrWrongPassword = fmt.Errorf("wrong password: %w", ErrUnauthorized)
	ErrForbidden     = fmt.Errorf("marker belongs to another account: %w", ErrUnauthorized)
	ErrInvalidToken  = errors.New("invalid token")

	// Provider errors. Client errors (4xx) abort the current operation,
	// transient ones (timeouts, 5xx) are retried before surfacing.
	ErrProviderClient    = errors.New("provider rejected request")
	ErrProviderTransient = errors.New("provider temporarily unavailable")

	// Persistence failure. The operation is not complete and may be retried.
	ErrStore = errors.New("store error")
)
