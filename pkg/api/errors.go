package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingToken is returned when a Google call is made without an access token
	ErrMissingToken = errors.New("missing access token")
	// ErrNotConfigured is returned by clients whose credentials are absent
	ErrNotConfigured = errors.New("upstream client not configured")
)

// StatusError is a non-2xx answer from an upstream API
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Source, e.StatusCode, body)
}

// Temporary reports whether retrying the same request might succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCodeOf extracts the upstream status code from err, or 0
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
