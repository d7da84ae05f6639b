// Package errors defines the service error taxonomy and HTTP status mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of service failure.
type ErrorCode string

const (
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken      ErrorCode = "INVALID_TOKEN"
	CodeMissingSubject    ErrorCode = "MISSING_SUBJECT"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodePayloadTooLarge   ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeUnavailable       ErrorCode = "UNAVAILABLE"
	CodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInternal          ErrorCode = "INTERNAL"
)

// ServiceError carries a code, a human-readable message and the HTTP status
// it maps to at the boundary.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a key/value pair and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Unauthorized indicates bad credentials.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Unauthorized"
	}
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// InvalidToken indicates a malformed, mis-signed or expired token.
func InvalidToken(cause error) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidToken,
		Message:    "Could not validate credentials",
		HTTPStatus: http.StatusUnauthorized,
		cause:      cause,
	}
}

// MissingSubject indicates a token whose payload lacks a subject id.
func MissingSubject() *ServiceError {
	return &ServiceError{
		Code:       CodeMissingSubject,
		Message:    "Token is missing a subject",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Conflict indicates a uniqueness violation (duplicate email or record).
func Conflict(message string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message, HTTPStatus: http.StatusBadRequest}
}

// NotFound indicates a missing record.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// InvalidInput indicates a request the caller can fix.
func InvalidInput(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidInput, Message: message, HTTPStatus: http.StatusBadRequest}
}

// PayloadTooLarge indicates an upload over the configured limit.
func PayloadTooLarge(message string) *ServiceError {
	return &ServiceError{Code: CodePayloadTooLarge, Message: message, HTTPStatus: http.StatusRequestEntityTooLarge}
}

// Unavailable indicates an unreachable remote backend. It is always recovered
// via the local fallback and never surfaced to API callers.
func Unavailable(message string, cause error) *ServiceError {
	if message == "" {
		message = "Backend unavailable"
	}
	return &ServiceError{
		Code:       CodeUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		cause:      cause,
	}
}

// RateLimitExceeded indicates the caller exceeded the request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return &ServiceError{
		Code:       CodeRateLimitExceeded,
		Message:    fmt.Sprintf("Rate limit of %d requests per %s exceeded", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *ServiceError {
	if message == "" {
		message = "Internal server error"
	}
	return &ServiceError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		cause:      cause,
	}
}

// GetServiceError returns the ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if stderrors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	serviceErr := GetServiceError(err)
	return serviceErr != nil && serviceErr.Code == code
}
