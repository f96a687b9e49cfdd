package auth

import "errors"

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountExists      = errors.New("account already exists")
	ErrSignupDisabled     = errors.New("self sign-up is disabled")
	ErrSessionEnded       = errors.New("session has ended")
)
