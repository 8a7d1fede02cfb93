// Package apperror holds the error taxonomy shared by every layer. Lower layers wrap one of
// the sentinels; the HTTP layer maps them to a status with StatusCode.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrAuthRequired      = errors.New("authentication required")
	ErrAuthInvalid       = errors.New("invalid or expired token")
	ErrForbidden         = errors.New("admin access required")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUpstream          = errors.New("payment gateway error")
	ErrPersistence       = errors.New("persistence error")
)

// ErrProductNotFound is a NotFound specialisation used by the cart and the admin catalog.
var ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

// Validation builds a ValidationError carrying a client-facing message.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Error pairs a taxonomy sentinel with a message safe to show to the caller.
type Error struct {
	Kind    error
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrAuthInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text placed in the response envelope. Upstream and persistence
// failures never leak their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	switch {
	case errors.Is(err, ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, ErrInsufficientStock):
		return "Insufficient stock"
	case errors.Is(err, ErrInvalidAmount):
		return "Invalid amount"
	case errors.Is(err, ErrAuthRequired):
		return "Token required"
	case errors.Is(err, ErrAuthInvalid):
		return "Invalid or expired token"
	case errors.Is(err, ErrForbidden):
		return "Admin access required"
	case errors.Is(err, ErrUpstream):
		return "Payment gateway error"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrValidation):
		return "Invalid request"
	default:
		return "Server error"
	}
}
