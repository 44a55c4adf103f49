package shared

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the backend rejects the session (HTTP 401).
// By the time a caller sees it the session has already been torn down.
var ErrUnauthorized = errors.New("unauthorized")

// NetworkErrorMessage is shown for transport failures outside the feed path.
const NetworkErrorMessage = "Network error. Please try again."

// ValidationError is a client-side precondition failure. No request was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// TransportError covers an unreachable backend or a response body that is
// not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError means the backend answered but signaled failure in its
// payload.
type ApplicationError struct {
	Status  int
	Code    string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("application (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("application (%d): %s", e.Status, e.Message)
}

// IsTransport returns true if err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// UserMessage returns the text to show the user for err, falling back to
// fallback when the error carries no message of its own.
func UserMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ae *ApplicationError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if IsTransport(err) {
		return NetworkErrorMessage
	}
	return fallback
}
