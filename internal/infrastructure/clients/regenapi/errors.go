package regenapi

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned when a 401 could not be cured by a token
	// refresh. The session is cleared before it is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrMalformedResponse wraps every response that does not match the
	// {data, message} envelope.
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPError is a non-2xx response
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// NetworkError is a transport failure; no response was read
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
