package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	Set(zap.New(core))
	return logs
}

func TestInit(t *testing.T) {
	Init("development")
	assert.NotNil(t, log)

	Init("production")
	assert.NotNil(t, log)
}

func TestInfo(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Info("test message", "booking_id", 7)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "test message", entry.Message)
	assert.Equal(t, int64(7), entry.ContextMap()["booking_id"])
}

func TestError(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Error("test error")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}

func TestDebug_FilteredByLevel(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Debug("hidden")

	assert.Equal(t, 0, logs.Len())
}

func TestFormatted(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Infof("test %s", "message")
	Errorf("test %s", "error")
	Debugf("test %d", 3)

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "test message", logs.All()[0].Message)
	assert.Equal(t, "test error", logs.All()[1].Message)
	assert.Equal(t, "test 3", logs.All()[2].Message)
}
