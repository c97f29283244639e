package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"netfusion-go/internal/auth"
	"netfusion-go/internal/service"
	"netfusion-go/pkg/api"
)

// Error codes in the JSON error body
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimited   = "RATE_LIMITED"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeTimeout       = "UPSTREAM_TIMEOUT"
	CodeNotConfigured = "NOT_CONFIGURED"
	CodeCanceled      = "REQUEST_CANCELED"
	CodeInternal      = "INTERNAL_ERROR"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// StatusClientClosedRequest answers a request whose client went away before
// the work finished. Nobody reads the body.
const StatusClientClosedRequest = 499

// upstreamError marks an error that came back from an external API call
type upstreamError struct {
	err error
}

func (e *upstreamError) Error() string { return e.err.Error() }
func (e *upstreamError) Unwrap() error { return e.err }

// upstream tags a service error so the error handler answers 502 rather than 500
func upstream(err error) error {
	if err == nil {
		return nil
	}
	return &upstreamError{err: err}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusBadGateway:
		return CodeUpstream
	case http.StatusGatewayTimeout:
		return CodeTimeout
	case http.StatusServiceUnavailable:
		return CodeNotConfigured
	case StatusClientClosedRequest:
		return CodeCanceled
	default:
		return CodeInternal
	}
}

// classify maps err to an HTTP status and a client-safe message
func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, api.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSession),
		errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, api.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Upstream service is not configured"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "Request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream request timed out"
	}

	var ue *upstreamError
	if errors.As(err, &ue) {
		// Google rejecting the stored token means the user must sign in again
		if api.StatusCodeOf(err) == http.StatusUnauthorized {
			return http.StatusUnauthorized, "Google authorization expired"
		}
		return http.StatusBadGateway, "Upstream request failed"
	}

	return http.StatusInternalServerError, "Internal Server Error"
}

// ErrorHandler renders every error as {"error":{"message","code"}}
func (ctl *Controller) ErrorHandler(c *fiber.Ctx, err error) error {
	status, message := classify(err)

	if status >= http.StatusInternalServerError {
		ctl.secLog.SafeError("Request failed", err, map[string]interface{}{
			"path":       c.Path(),
			"status":     status,
			"request_id": c.Locals(requestIDKey),
		})
	}

	return c.Status(status).JSON(errorResponse{Error: errorBody{
		Message: message,
		Code:    codeForStatus(status),
	}})
}

func notFound(c *fiber.Ctx) error {
	return fiber.NewError(http.StatusNotFound, "Not Found")
}
