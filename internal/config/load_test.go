package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// writeConfigFile writes a YAML config file into a temporary directory
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoadDefaults verifies that Load sets the expected default values
// when neither a file nor environment variables provide them.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"TASKMGR_SERVER_PORT":                   "",
		"TASKMGR_SERVER_LOG_LEVEL":              "",
		"TASKMGR_TASKS_GRACEFUL_CANCEL_WAIT":    "",
		"TASKMGR_TASKS_QUEUE_GRACEFUL_STOP":     "",
		"TASKMGR_TASKS_LONG_RUNNING_CANCEL_WAIT": "",
	})
	defer cleanup()

	cfg, err := Load("")

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 8080, cfg.Server.Port, "Default server port should be 8080")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")
	assert.Empty(t, cfg.Server.AdminSecret)
	assert.Equal(t, 5*time.Second, cfg.Tasks.QueueGracefulStop)
	assert.Equal(t, time.Second, cfg.Tasks.GracefulCancelWait)
	assert.Equal(t, 5*time.Second, cfg.Tasks.LongRunningCancelWait)
	assert.Equal(t, 30*time.Second, cfg.Tasks.RecurringInterval)
}

// TestLoadFromEnv verifies that Load reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"TASKMGR_SERVER_PORT":                    "9090",
		"TASKMGR_SERVER_LOG_LEVEL":               "debug",
		"TASKMGR_SERVER_ADMIN_SECRET":            "thisisasecretkeythatis32charslong!!",
		"TASKMGR_TASKS_GRACEFUL_CANCEL_WAIT":     "250ms",
		"TASKMGR_TASKS_LONG_RUNNING_CANCEL_WAIT": "10s",
	})
	defer cleanup()

	cfg, err := Load("")

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 9090, cfg.Server.Port, "Server port should be loaded from environment variables")
	assert.Equal(t, "debug", cfg.Server.LogLevel, "Log level should be loaded from environment variables")
	assert.Equal(t, "thisisasecretkeythatis32charslong!!", cfg.Server.AdminSecret)
	assert.Equal(t, 250*time.Millisecond, cfg.Tasks.GracefulCancelWait)
	assert.Equal(t, 10*time.Second, cfg.Tasks.LongRunningCancelWait)
}

// TestLoadFromFile verifies file values and that the environment overrides them.
func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 7070
  log_level: warn
tasks:
  queue_graceful_stop: 2s
  graceful_cancel_wait: 100ms
  long_running_cancel_wait: 3s
  recurring_interval: 1m
`)
	cleanup := setupEnv(t, map[string]string{
		"TASKMGR_SERVER_LOG_LEVEL": "error",
	})
	defer cleanup()

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "error", cfg.Server.LogLevel, "environment takes precedence over the file")
	assert.Equal(t, 2*time.Second, cfg.Tasks.QueueGracefulStop)
	assert.Equal(t, time.Minute, cfg.Tasks.RecurringInterval)

	settings := cfg.Tasks.Settings()
	assert.Equal(t, 2*time.Second, settings.QueueGracefulStop)
	assert.Equal(t, 100*time.Millisecond, settings.GracefulCancelWait)
	assert.Equal(t, 3*time.Second, settings.LongRunningCancelWait)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name           string
		envVars        map[string]string
		errorSubstring string
	}{
		{
			name: "Invalid port number",
			envVars: map[string]string{
				"TASKMGR_SERVER_PORT": "999999",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Invalid log level",
			envVars: map[string]string{
				"TASKMGR_SERVER_LOG_LEVEL": "invalid-level",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Short admin secret",
			envVars: map[string]string{
				"TASKMGR_SERVER_ADMIN_SECRET": "tooshort",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Negative cancel wait",
			envVars: map[string]string{
				"TASKMGR_TASKS_GRACEFUL_CANCEL_WAIT": "-1s",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Zero recurring interval",
			envVars: map[string]string{
				"TASKMGR_TASKS_RECURRING_INTERVAL": "0s",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Unparseable duration",
			envVars: map[string]string{
				"TASKMGR_TASKS_QUEUE_GRACEFUL_STOP": "soon",
			},
			errorSubstring: "failed to unmarshal",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			cfg, err := Load("")

			assert.Error(t, err, "Load() should return an error with invalid configuration")
			if err != nil {
				assert.Contains(t, err.Error(), tc.errorSubstring, "Error message should contain expected substring")
			}
			assert.Nil(t, cfg, "Config should be nil when an error occurs")
		})
	}
}
