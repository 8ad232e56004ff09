package application

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount is below the minimum investment")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("operation not allowed in the current state")
	ErrInvalidStatus     = errors.New("unknown investment status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotDue            = errors.New("payout is not due yet")
	ErrConcurrentUpdate  = errors.New("investment was modified concurrently")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternal          = errors.New("internal failure")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnavailable        = errors.New("feature not configured")
)
