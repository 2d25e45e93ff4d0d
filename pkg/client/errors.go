package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during a backoff wait.
	ErrContextCancelled = errors.New("context cancelled")
)

// bodyExcerptLimit bounds how much of an error response body is carried in
// an UpstreamError.
const bodyExcerptLimit = 500

// UpstreamError represents a non-2xx response from the upstream API.
type UpstreamError struct {
	StatusCode int
	// Body is a truncated excerpt of the response body.
	Body string
	// Transient marks retriable statuses (429, 500, 502, 503, 504).
	Transient bool
	Err       error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error (status %d): %s: %v",
			kind, e.StatusCode, e.Body, e.Err)
	}
	return fmt.Sprintf("upstream %s error (status %d): %s",
		kind, e.StatusCode, e.Body)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsTransientStatus reports whether an HTTP status code should be retried.
func IsTransientStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// excerpt truncates a response body for inclusion in an error.
func excerpt(body []byte) string {
	if len(body) > bodyExcerptLimit {
		return string(body[:bodyExcerptLimit])
	}
	return string(body)
}
