package task

import "time"

// Settings holds the durations the orchestrator consults when stopping queues
// and cancelling tasks.
type Settings struct {
	// QueueGracefulStop is how long a stopping queue lets in-flight submissions
	// finish before cancelling them.
	QueueGracefulStop time.Duration

	// GracefulCancelWait delays the cancellation signal for ordinary tasks
	// during bulk cancellation.
	GracefulCancelWait time.Duration

	// LongRunningCancelWait delays the cancellation signal for long-running
	// tasks during bulk cancellation.
	LongRunningCancelWait time.Duration
}

// DefaultSettings returns Settings with reasonable defaults
func DefaultSettings() Settings {
	return Settings{
		QueueGracefulStop:     5 * time.Second,
		GracefulCancelWait:    time.Second,
		LongRunningCancelWait: 5 * time.Second,
	}
}

// SettingsSource provides the current Settings. Implementations may change
// the returned value at any time; the orchestrator reads it at each use.
type SettingsSource interface {
	Current() Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings Settings

// Current returns s as Settings.
func (s StaticSettings) Current() Settings {
	return Settings(s)
}
