package config

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchedConfig = `
server:
  port: 8080
  log_level: info
tasks:
  queue_graceful_stop: 1s
  graceful_cancel_wait: 200ms
  long_running_cancel_wait: 2s
  recurring_interval: 10s
`

func TestWatch_ReloadsTaskSettings(t *testing.T) {
	path := writeConfigFile(t, watchedConfig)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := Watch(path, logger)
	require.NoError(t, err)

	assert.Equal(t, time.Second, w.Current().QueueGracefulStop)
	assert.Equal(t, 200*time.Millisecond, w.Current().GracefulCancelWait)

	var notified atomic.Int32
	w.OnChange(func(*Config) { notified.Add(1) })

	updated := `
server:
  port: 8080
  log_level: info
tasks:
  queue_graceful_stop: 3s
  graceful_cancel_wait: 500ms
  long_running_cancel_wait: 2s
  recurring_interval: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		return w.Current().QueueGracefulStop == 3*time.Second
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, w.Current().GracefulCancelWait)
	assert.Positive(t, notified.Load())
}

func TestWatch_IgnoresInvalidChange(t *testing.T) {
	path := writeConfigFile(t, watchedConfig)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := Watch(path, logger)
	require.NoError(t, err)

	invalid := `
server:
  port: 8080
  log_level: info
tasks:
  queue_graceful_stop: -5s
  graceful_cancel_wait: 200ms
  long_running_cancel_wait: 2s
  recurring_interval: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(invalid), 0o600))
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, time.Second, w.Current().QueueGracefulStop)
	assert.Equal(t, 8080, w.Config().Server.Port)
}

func TestWatch_RequiresValidFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := Watch("", logger)
	assert.Error(t, err)

	path := writeConfigFile(t, "server:\n  port: 0\n")
	_, err = Watch(path, logger)
	assert.ErrorContains(t, err, "validation failed")
}
