// internal/common/errors/errors.go

// Package errors provides standardized error handling for the stock client:
// a closed set of error codes, a structured error type and helpers to
// classify errors crossing the service boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transport and authentication
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeHTTPError         ErrorCode = "HTTP_ERROR"
	ErrCodeNetworkError      ErrorCode = "NETWORK_ERROR"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeSerialization     ErrorCode = "SERIALIZATION_ERROR"
	ErrCodeAuthFailed        ErrorCode = "AUTH_FAILED"

	// Local state
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeStorageReadFailed  ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed ErrorCode = "STORAGE_WRITE_FAILED"

	// Side channels
	ErrCodeExportFailed           ErrorCode = "EXPORT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status recorded in the metadata, or 0.
func (e *StandardError) StatusCode() int {
	if e.Metadata == nil {
		return 0
	}
	if status, ok := e.Metadata["status"].(int); ok {
		return status
	}
	return 0
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnauthorizedError is returned when no usable credential exists.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Credential missing or expired",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError wraps a 403 response. It is surfaced to the user.
func NewForbiddenError(endpoint, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Access to the resource is forbidden",
		Details:   body,
		Retryable: false,
		Metadata: map[string]interface{}{
			"status":   403,
			"endpoint": endpoint,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewHTTPError carries the status and body text of a non-2xx response.
func NewHTTPError(endpoint string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHTTPError,
		Message:   fmt.Sprintf("HTTP error! status: %d", status),
		Details:   body,
		Retryable: status >= 500,
		Metadata: map[string]interface{}{
			"status":   status,
			"endpoint": endpoint,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a retryable transport error.
func NewNetworkError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkError,
		Message:   "Request could not be completed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError is a network error for a call that outlived its deadline.
func NewTimeoutError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkError,
		Message:   "Request timed out",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"endpoint": endpoint, "timeout": true},
		Timestamp: time.Now().UTC(),
	}
}

// NewPermissionDeniedError is a FORBIDDEN raised before a request is sent,
// when the user lacks permission.
func NewPermissionDeniedError(permission string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "К сожалению, у Вас нет доступа к этому действию",
		Details:   "missing permission " + permission,
		Retryable: false,
		Metadata:  map[string]interface{}{"permission": permission},
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError is returned when a payload does not match the
// schema declared for its endpoint.
func NewMalformedResponseError(endpoint, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Unexpected response shape",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewSerializationError creates a non-retryable encode/decode error.
func NewSerializationError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSerialization,
		Message:   "Failed to serialize payload",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthFailedError creates a retryable token acquisition error.
func NewAuthFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthFailed,
		Message:   "Failed to authenticate",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string, fields map[string]interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Metadata:  fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageReadError creates a storage read error.
func NewStorageReadError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageReadFailed,
		Message:   "Failed to read persisted value",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"key": key},
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageWriteError creates a storage write error.
func NewStorageWriteError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageWriteFailed,
		Message:   "Failed to persist value",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"key": key},
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError creates an export error.
func NewExportFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Export failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   fmt.Sprintf("Failed to send %s notification", channel),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNetworkError,
		ErrCodeStorageReadFailed,
		ErrCodeStorageWriteFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeAuthFailed:
		return 1

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case codeStr == string(ErrCodeUnauthorized) || codeStr == string(ErrCodeForbidden) || strings.HasPrefix(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "HTTP") || strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "RESPONSE"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "SERIALIZATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "EXPORT"):
		return "EXPORT"
	default:
		return "UNKNOWN"
	}
}

// AsStandard unwraps err into a *StandardError if one is in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or
// INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}
