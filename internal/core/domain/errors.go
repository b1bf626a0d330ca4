package domain

import "errors"

// Auth and account errors.
var (
	ErrDuplicateEmail        = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUnauthorizedRole      = errors.New("unauthorized login attempt")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthorized          = errors.New("unauthorized access")
	ErrForbidden             = errors.New("access denied")
	ErrInvalidInput          = errors.New("invalid input")
)

// Task store errors.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidTask     = errors.New("invalid task")
	ErrVersionConflict = errors.New("task collection was modified concurrently")
)
