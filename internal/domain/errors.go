package domain

import "errors"

// Error kinds shared across layers. Repositories and services wrap these so
// callers can match with errors.Is regardless of the entity involved.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidReference  = errors.New("invalid reference")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrSignatureInvalid  = errors.New("signature verification failed")
	ErrInvalidStatus     = errors.New("invalid order status")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotVerified        = errors.New("please verify your email first")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrForbidden          = errors.New("insufficient permissions")
)
