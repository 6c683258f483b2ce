package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidRole        = errors.New("invalid role")
	ErrRateLimited        = errors.New("too many role assignment requests, try again later")
	ErrForbidden          = errors.New("only Admins can assign roles")
	ErrTargetNotFound     = errors.New("target user not found")
	ErrTargetDisabled     = errors.New("target user account is disabled")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAccountDeactivated = errors.New("your account has been deactivated by the admin")
	ErrStaleResolution    = errors.New("session ended during role resolution")
)

// ValidationError carries a caller-safe message for malformed input.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }
