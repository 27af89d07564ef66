package shopapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps transport failures (connection refused, timeouts).
	ErrUnavailable = errors.New("BACKEND_UNAVAILABLE")
	// ErrInvalidResponse wraps bodies that are not the expected JSON shape.
	ErrInvalidResponse = errors.New("INVALID_BACKEND_RESPONSE")
	// ErrRejected matches every RejectedError.
	ErrRejected = errors.New("BACKEND_REJECTED")
)

// RejectedError is an application-level failure: a well-formed response with
// success=false or an error status.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request (status %d)", e.Status)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrRejected) match.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Message returns the backend-provided message of a rejection, or "".
func Message(err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Message
	}
	return ""
}
