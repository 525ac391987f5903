package domain

import "errors"

var (
	// Value-object construction failures.
	ErrInvalidEmail   = errors.New("invalid email format")
	ErrInvalidStatus  = errors.New("invalid user status")
	ErrInvalidOtpType = errors.New("invalid otp type")

	// Missing entities.
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrOtpNotFound        = errors.New("otp not found")

	// Uniqueness violations surfaced by the persistence layer.
	ErrDuplicateIdentity = errors.New("identity already exists")

	// Authentication failures.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("user account is locked")
	ErrLoginNotAllowed    = errors.New("user may not authenticate")

	// OTP verification failures.
	ErrOtpExpired     = errors.New("otp expired")
	ErrOtpAlreadyUsed = errors.New("otp already used")
	ErrOtpMismatch    = errors.New("otp code mismatch")

	// Authorization.
	ErrForbidden = errors.New("access forbidden")
)
