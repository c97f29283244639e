package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	ErrorSeverityTemporary ErrorSeverity = iota // transient, retry soon
	ErrorSeverityRetryable                      // may succeed on retry
	ErrorSeverityFatal                          // retrying will not help
)

func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityTemporary:
		return "temporary"
	case ErrorSeverityRetryable:
		return "retryable"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrorClassifier defines interface for error classification
type ErrorClassifier interface {
	ClassifyError(err error) ErrorSeverity
	ShouldRetry(err error) bool
}

// UpstreamErrorClassifier classifies errors from the upstream analytics APIs
type UpstreamErrorClassifier struct{}

// NewUpstreamErrorClassifier creates new error classifier
func NewUpstreamErrorClassifier() ErrorClassifier {
	return &UpstreamErrorClassifier{}
}

// ClassifyError classifies error by severity level
func (c *UpstreamErrorClassifier) ClassifyError(err error) ErrorSeverity {
	if err == nil {
		return ErrorSeverityTemporary
	}

	if errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrNotConfigured) {
		return ErrorSeverityFatal
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return ErrorSeverityTemporary
		case se.StatusCode >= 500:
			return ErrorSeverityRetryable
		case se.StatusCode >= 400:
			// 400 bad request, 401/403 auth, 404 unknown site: same answer next time
			return ErrorSeverityFatal
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorSeverityRetryable
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "dns") {
		return ErrorSeverityRetryable
	}

	// Default to retryable for unknown errors
	return ErrorSeverityRetryable
}

// ShouldRetry reports whether another attempt makes sense
func (c *UpstreamErrorClassifier) ShouldRetry(err error) bool {
	return err != nil && c.ClassifyError(err) != ErrorSeverityFatal
}
