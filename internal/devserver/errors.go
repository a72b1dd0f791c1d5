package devserver

import (
	"errors"
	"net/http"
)

// Error is a failure with the HTTP status and message the client sees.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

func badRequest(msg string) error { return newError(http.StatusBadRequest, msg) }

var (
	ErrNotFound             = newError(http.StatusNotFound, "Not found")
	ErrAlreadyExists        = newError(http.StatusConflict, "An account with this email already exists")
	ErrInvalidLoginPassword = newError(http.StatusUnauthorized, "Invalid email or password")
	ErrNotVerified          = newError(http.StatusForbidden, "Please verify your email before signing in")
	ErrInvalidOTP           = newError(http.StatusBadRequest, "Invalid or expired verification code")
	ErrForbidden            = newError(http.StatusForbidden, "Forbidden")
	ErrMissingToken         = newError(http.StatusUnauthorized, "No token provided")
	ErrBadToken             = newError(http.StatusUnauthorized, "Invalid or expired token")
	ErrProductNotFound      = newError(http.StatusNotFound, "Product not found")
	ErrCartItemNotFound     = newError(http.StatusNotFound, "Cart item not found")
	ErrNoProgram            = newError(http.StatusNotFound, "No live program")
)

// statusAndMessage maps err to a response. Unknown errors become 500.
func statusAndMessage(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Status, e.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
