package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{FatalLevel, "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestStructuredLogger(t *testing.T) {
	t.Run("LogLevelFiltering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, WarnLevel)

		logger.Debug("debug message")
		assert.Empty(t, buf.String())

		logger.Info("info message")
		assert.Empty(t, buf.String())

		logger.Warn("warn message")
		assert.NotEmpty(t, buf.String())
	})

	t.Run("FieldsAreEmitted", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, DebugLevel)
		logger.Info("session transitioned", String("session_id", "abc"), Int("attempt", 3))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "session transitioned", entry["message"])
		assert.Equal(t, "abc", entry["session_id"])
		assert.EqualValues(t, 3, entry["attempt"])
	})

	t.Run("WithFieldsAccumulates", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewLogger(&buf, DebugLevel)
		withField := base.WithFields(String("component", "session"))
		withField.Info("hello")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "session", entry["component"])
	})

	t.Run("WithContextAddsRequestID", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewLogger(&buf, DebugLevel)
		ctx := WithRequestID(context.Background(), "req-1")
		base.WithContext(ctx).Info("dispatch")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "req-1", entry["request_id"])
	})
}

func TestProtocolError(t *testing.T) {
	cause := errors.New("boom")
	err := NewProtocolError(ErrCodeCrypto, "auth failed", cause).WithDetails("nonce", "deadbeef")

	assert.Contains(t, err.Error(), "CRYPTO")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, "deadbeef", err.Details["nonce"])
}
