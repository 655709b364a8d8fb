package config

import (
	"time"

	"github.com/phrazzld/taskmanager/internal/task"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Tasks  TasksConfig  `mapstructure:"tasks" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AdminSecret signs the bearer tokens accepted by mutating ops endpoints.
	// Those endpoints are unguarded when it is empty.
	AdminSecret string `mapstructure:"admin_secret" validate:"omitempty,min=32"`
}

// TasksConfig contains the task orchestrator durations. They may change
// while the process runs; see Watcher.
type TasksConfig struct {
	QueueGracefulStop     time.Duration `mapstructure:"queue_graceful_stop" validate:"gte=0"`
	GracefulCancelWait    time.Duration `mapstructure:"graceful_cancel_wait" validate:"gte=0"`
	LongRunningCancelWait time.Duration `mapstructure:"long_running_cancel_wait" validate:"gte=0"`
	// RecurringInterval paces the daemon's heartbeat task.
	RecurringInterval time.Duration `mapstructure:"recurring_interval" validate:"gt=0"`
}

// Settings converts the durations the orchestrator consults.
func (c TasksConfig) Settings() task.Settings {
	return task.Settings{
		QueueGracefulStop:     c.QueueGracefulStop,
		GracefulCancelWait:    c.GracefulCancelWait,
		LongRunningCancelWait: c.LongRunningCancelWait,
	}
}
