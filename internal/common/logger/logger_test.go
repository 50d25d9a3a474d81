// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func createTestObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestLogger_FieldsAndLevels(t *testing.T) {
	log, logs := createTestObserved(zapcore.InfoLevel)

	log.Debug("hidden", map[string]interface{}{"k": 1})
	ForComponent(log, "stock").Warn("fetch failed", map[string]interface{}{
		"group": "active",
		"error": errors.New("boom"),
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "fetch failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "stock", fields["component"])
	assert.Equal(t, "active", fields["group"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLogger_WithErrorNil(t *testing.T) {
	log, logs := createTestObserved(zapcore.DebugLevel)

	log.WithError(nil).Info("ok", nil)
	log.WithError(errors.New("x")).Error("failed", nil)

	require.Equal(t, 2, logs.Len())
	assert.Empty(t, logs.All()[0].ContextMap())
	assert.Equal(t, "x", logs.All()[1].ContextMap()["error"])
}

func TestToZapFields_SortedKeys(t *testing.T) {
	fields := toZapFields(map[string]interface{}{"b": 2, "a": 1, "c": 3})
	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
	assert.Nil(t, toZapFields(nil))
}
