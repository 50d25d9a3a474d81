// internal/common/errors/errors_test.go
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{}) { l.warns = append(l.warns, msg) }

type recordingNotifier struct {
	subjects []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, subject, _ string) error {
	n.subjects = append(n.subjects, subject)
	return n.err
}

func TestNewHTTPError(t *testing.T) {
	err := NewHTTPError("v1/feed", 502, "bad gateway")

	assert.Equal(t, ErrCodeHTTPError, err.Code)
	assert.Equal(t, 502, err.StatusCode())
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "status: 502")
	assert.Contains(t, err.Error(), "bad gateway")

	assert.False(t, NewHTTPError("v1/feed", 400, "").Retryable)
}

func TestCodeOf_UnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("listing: %w", NewForbiddenError("v1/x", "nope"))

	assert.Equal(t, ErrCodeForbidden, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeForbidden))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeUnauthorized:           "AUTH",
		ErrCodeForbidden:              "AUTH",
		ErrCodeAuthFailed:             "AUTH",
		ErrCodeHTTPError:              "TRANSPORT",
		ErrCodeMalformedResponse:      "TRANSPORT",
		ErrCodeStorageWriteFailed:     "STORAGE",
		ErrCodeValidationFailed:       "VALIDATION",
		ErrCodeNotificationSendFailed: "NOTIFICATION",
		ErrCodeExportFailed:           "EXPORT",
		ErrCodeInternal:               "UNKNOWN",
	}
	for code, category := range tests {
		assert.Equal(t, category, GetErrorCategory(code), string(code))
	}
}

func TestRetryCounts(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeNetworkError))
	assert.False(t, IsRetryableErrorCode(ErrCodeForbidden))
	assert.Equal(t, 1, GetRetryCount(ErrCodeAuthFailed))
}

// ==========================
// Handler
// ==========================

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		writePath    bool
		wantCode     ErrorCode
		wantNotified bool
	}{
		{name: "read path network error is only logged", err: NewNetworkError("v1/x", stderrors.New("reset")), wantCode: ErrCodeNetworkError},
		{name: "forbidden is always notified", err: NewForbiddenError("v1/x", ""), wantCode: ErrCodeForbidden, wantNotified: true},
		{name: "write path failure is notified", err: NewHTTPError("v1/x", 500, ""), writePath: true, wantCode: ErrCodeHTTPError, wantNotified: true},
		{name: "plain error normalized", err: stderrors.New("boom"), wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			notifier := &recordingNotifier{}
			h := NewHandler(log, notifier)

			stdErr := h.Handle(context.Background(), "op", tt.err, tt.writePath)
			require.NotNil(t, stdErr)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Len(t, log.errors, 1)
			assert.Equal(t, tt.wantNotified, len(notifier.subjects) == 1)
		})
	}
}

func TestHandler_NilError(t *testing.T) {
	h := NewHandler(&recordingLogger{}, nil)
	assert.Nil(t, h.Handle(context.Background(), "op", nil, true))
}

func TestHandler_NotifierFailureIsLogged(t *testing.T) {
	log := &recordingLogger{}
	h := NewHandler(log, &recordingNotifier{err: stderrors.New("down")})

	h.Handle(context.Background(), "op", NewForbiddenError("v1/x", ""), false)
	assert.Len(t, log.warns, 1)
}
