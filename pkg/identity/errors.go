package identity

import "errors"

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
)

// OAuth flow errors
var (
	ErrUnknownProvider = errors.New("unknown OAuth provider")
	ErrStateMismatch   = errors.New("OAuth state mismatch")
	ErrInvalidCode     = errors.New("invalid OAuth code")
	ErrNoProviderID    = errors.New("provider profile missing user ID")
)
