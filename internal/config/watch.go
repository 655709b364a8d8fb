package config

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/phrazzld/taskmanager/internal/task"
	"github.com/spf13/viper"
)

// Watcher keeps a configuration file loaded and re-reads it whenever it
// changes on disk. Changes that fail validation are logged and ignored, so
// Config always returns the last valid configuration.
//
// Watcher implements task.SettingsSource, which lets a running orchestrator
// pick up new durations without a restart.
type Watcher struct {
	v       *viper.Viper
	logger  *slog.Logger
	current atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(*Config)
}

// Watch loads the file at path and starts watching it.
func Watch(path string, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config watcher requires a file path")
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		v:      v,
		logger: logger.With("component", "config_watcher", "file", path),
	}
	w.current.Store(cfg)

	v.OnConfigChange(w.reload)
	v.WatchConfig()
	return w, nil
}

// Config returns the last valid configuration.
func (w *Watcher) Config() *Config {
	return w.current.Load()
}

// Current returns the task durations of the last valid configuration.
func (w *Watcher) Current() task.Settings {
	return w.current.Load().Tasks.Settings()
}

// OnChange registers fn to be called with every accepted configuration.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Watcher) reload(event fsnotify.Event) {
	cfg, err := decode(w.v)
	if err != nil {
		w.logger.Error("ignoring invalid configuration change",
			"op", event.Op.String(),
			"error", err)
		return
	}

	previous := w.current.Swap(cfg)
	w.logger.Info("configuration reloaded",
		"op", event.Op.String(),
		"queue_graceful_stop", cfg.Tasks.QueueGracefulStop,
		"graceful_cancel_wait", cfg.Tasks.GracefulCancelWait,
		"long_running_cancel_wait", cfg.Tasks.LongRunningCancelWait)
	if previous != nil && previous.Server != cfg.Server {
		w.logger.Warn("server settings changed on disk; they apply after a restart")
	}

	w.mu.Lock()
	listeners := make([]func(*Config), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
}

var _ task.SettingsSource = (*Watcher)(nil)
