package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedResponse is returned when a response body cannot be decoded
	// as the expected JSON document.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUploadTimeout is returned when an upload exceeds its time ceiling.
	ErrUploadTimeout = errors.New("upload timed out")
)

// APIError is a non-success HTTP status reported by the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// TransportError is a failure to reach the backend at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
