package llmclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

var (
	// ErrEmptyResponse indicates the API returned an empty response
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrStreamClosed indicates the stream has been closed
	ErrStreamClosed = errors.New("stream closed")
)

// errorBody is the error object returned by OpenAI-compatible services.
// Code is loosely typed because providers send strings, numbers or null.
type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
	Param   any    `json:"param,omitempty"`
}

// ErrorResponse represents the nested error format: {"error":{"message":"...","code":"..."}}
type ErrorResponse struct {
	Error *errorBody `json:"error"`
}

// APIError represents an error response from the completion service.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Code       string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if re-running the request may succeed.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	switch e.Code {
	case "timeout", "connection_error", "server_error":
		return true
	}
	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "rate_limit_exceeded"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == "invalid_api_key"
}

// StreamError reports a malformed event in a streaming response.
type StreamError struct {
	Line string
	Err  error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("malformed stream event %q: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// logAPIError logs an API error at a level matching its kind.
func logAPIError(logger *slog.Logger, err *APIError) {
	attrs := []any{"status_code", err.StatusCode, "code", err.Code, "request_id", err.RequestID}
	switch {
	case err.IsRateLimit():
		logger.Warn("rate limited", attrs...)
	case err.IsAuthError():
		logger.Error("authentication failed", attrs...)
	default:
		logger.Error("API error", append(attrs, "message", err.Message)...)
	}
}
