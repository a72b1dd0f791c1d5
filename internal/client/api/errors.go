package api

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericMessage is shown for failures that carry no usable description.
const GenericMessage = "Something went wrong. Please try again."

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// TransportError means no response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() []error { return []error{e.Err, ErrUnavailable} }

// PreconditionError is a local guard failure; its text is user-facing.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

// Precondition returns a *PreconditionError with the given message.
func Precondition(msg string) error {
	return &PreconditionError{Msg: msg}
}

// Message maps err to the text presented to the user: the server message when
// present, otherwise the transport error message, otherwise GenericMessage.
// It returns "" for a nil error.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var pre *PreconditionError
	if errors.As(err, &pre) {
		return pre.Msg
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}

	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.Error()
	}

	return GenericMessage
}
