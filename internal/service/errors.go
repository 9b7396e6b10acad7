package service

import "errors"

// Validation (400)
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes long")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Rate limiting (429)
var ErrTooManyAttempts = errors.New("too many login attempts")

// Authentication (401)
var (
	ErrNoToken             = errors.New("no token provided")
	ErrInvalidToken        = errors.New("invalid access token")
	ErrNoRefreshToken      = errors.New("no refresh token provided")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrUserNotFound        = errors.New("user not found")
)

// Federated login
var (
	ErrInvalidProfile  = errors.New("provider profile incomplete")
	ErrUnverifiedEmail = errors.New("provider email not verified")
)
