// Package logger_test contains tests for the logger package
package logger_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/phrazzld/taskmanager/internal/config"
	"github.com/phrazzld/taskmanager/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreDefault puts the process-wide default logger back after a test.
func restoreDefault(t *testing.T) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })
}

// TestSetup is a basic test that ensures the Setup function works without errors
func TestSetup(t *testing.T) {
	restoreDefault(t)

	buf := &logger.TestLogBuffer{}
	log, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info", Port: 8080}, buf)
	require.NoError(t, err)
	require.NotNil(t, log)

	log.Info("service started", "port", 8080)
	assert.Same(t, log, slog.Default(), "Setup should install the logger as the default")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "service started", entries[0]["msg"])
	assert.Equal(t, float64(8080), entries[0]["port"])
}

// TestInvalidLogLevelParsing tests that when an invalid log level is provided,
// the Setup function defaults to info level and logs a warning message to stderr.
func TestInvalidLogLevelParsing(t *testing.T) {
	restoreDefault(t)

	origStderr := os.Stderr
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = stderrW

	buf := &logger.TestLogBuffer{}
	log, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "invalid_level", Port: 8080}, buf)

	os.Stderr = origStderr
	require.NoError(t, stderrW.Close())
	stderrBuf := new(bytes.Buffer)
	_, _ = io.Copy(stderrBuf, stderrR)
	stderrOutput := stderrBuf.String()

	require.NoError(t, err)
	require.NotNil(t, log)

	assert.Contains(t, stderrOutput, "invalid log level configured")
	assert.Contains(t, stderrOutput, "invalid_level")

	log.Debug("debug test message")
	log.Info("info test message")
	log.Warn("warn test message")

	output := buf.String()
	assert.NotContains(t, output, "debug test message", "default info level filters debug")
	assert.Contains(t, output, "info test message")
	assert.Contains(t, output, "warn test message")
}

// TestValidLogLevelParsing tests that valid log levels are correctly parsed
func TestValidLogLevelParsing(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{name: "debug level", logLevel: "debug", want: slog.LevelDebug},
		{name: "info level", logLevel: "info", want: slog.LevelInfo},
		{name: "warn level", logLevel: "warn", want: slog.LevelWarn},
		{name: "error level", logLevel: "error", want: slog.LevelError},
		{name: "case insensitive - DEBUG", logLevel: "DEBUG", want: slog.LevelDebug},
		{name: "case insensitive - Info", logLevel: "Info", want: slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			level, ok := logger.ParseLevel(tc.logLevel)
			assert.True(t, ok)
			assert.Equal(t, tc.want, level)

			restoreDefault(t)
			log, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tc.logLevel, Port: 8080}, io.Discard)
			require.NoError(t, err)
			assert.True(t, log.Enabled(context.Background(), tc.want))
			assert.False(t, log.Enabled(context.Background(), tc.want-1))
		})
	}

	level, ok := logger.ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestContextHelpers(t *testing.T) {
	assert.Empty(t, logger.RequestID(context.Background()))
	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))

	custom, _ := logger.GetTestLogger(t)
	ctx := logger.WithLogger(context.Background(), custom)
	ctx = logger.WithRequestID(ctx, "abc")

	assert.Same(t, custom, logger.FromContext(ctx))
	assert.Equal(t, "abc", logger.RequestID(ctx))
}

func TestContextHandler_KeepsAttributesAndGroups(t *testing.T) {
	buf := &logger.TestLogBuffer{}
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(buf, nil)))

	ctx := logger.WithRequestID(context.Background(), "req-7")
	log.With("component", "api").InfoContext(ctx, "first")
	log.WithGroup("task").InfoContext(context.Background(), "second", "name", "sync")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	first, err := logger.ParseLogEntry(lines[0])
	require.NoError(t, err)
	assert.Equal(t, "api", first["component"])
	assert.Equal(t, "req-7", first["request_id"])

	second, err := logger.ParseLogEntry(lines[1])
	require.NoError(t, err)
	assert.NotContains(t, second, "request_id")
	assert.Equal(t, map[string]interface{}{"name": "sync"}, second["task"])
}
