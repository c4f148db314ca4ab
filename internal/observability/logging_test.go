package observability

import (
	"context"
	"errors"
	"testing"

	"repairlog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerDisabled(t *testing.T) {
	logger := NewLogger(nil)
	require.NotNil(t, logger)
	// No-op logger must not panic
	logger.Info(context.Background(), "ignored")

	logger = NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	require.NotNil(t, logger)
	logger.Error(context.Background(), "ignored", errors.New("boom"))
}

func newObservedLogger(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{Logger: zap.New(core)}, logs
}

func TestLoggerFields(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Info(context.Background(), "session created", map[string]interface{}{
		"product_id": 5,
		"outcome":    "P",
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "session created", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 5, fields["product_id"])
	assert.Equal(t, "P", fields["outcome"])
}

func TestLoggerErrorIncludesError(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Error(context.Background(), "submission failed", errors.New("connection refused"), map[string]interface{}{
		"session_token": "tok",
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "connection refused", fields["error"])
	assert.Equal(t, "tok", fields["session_token"])
}

func TestLoggerMergesMultipleFieldMaps(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Warn(context.Background(), "merged",
		map[string]interface{}{"a": 1},
		nil,
		map[string]interface{}{"b": 2},
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 1, fields["a"])
	assert.EqualValues(t, 2, fields["b"])
}
