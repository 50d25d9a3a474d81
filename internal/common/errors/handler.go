// internal/common/errors/handler.go
package errors

import (
	"context"
	"time"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Notifier receives user-visible failures. Implementations live in
// internal/common/notify.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// Handler normalizes errors reaching a store boundary, logs them and
// forwards the user-visible ones to a Notifier.
type Handler struct {
	logger   Logger
	notifier Notifier
}

func NewHandler(logger Logger, notifier Notifier) *Handler {
	return &Handler{logger: logger, notifier: notifier}
}

// Handle logs err under the given operation name and returns the normalized
// error. Authorization failures and write-path failures are forwarded to the
// notifier; read-path failures are only logged.
func (h *Handler) Handle(ctx context.Context, operation string, err error, writePath bool) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)

	h.logger.Error("operation failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	if h.notifier != nil && (stdErr.Code == ErrCodeForbidden || writePath) {
		if notifyErr := h.notifier.Notify(ctx, operation, stdErr.Message); notifyErr != nil {
			h.logger.Warn("failed to deliver notification", map[string]interface{}{
				"operation": operation,
				"error":     notifyErr.Error(),
			})
		}
	}

	return stdErr
}

// normalizeError ensures we always have a StandardError
func (h *Handler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
