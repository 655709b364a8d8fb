package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmanager/internal/api/middleware"
	"github.com/phrazzld/taskmanager/internal/config"
	"github.com/phrazzld/taskmanager/internal/events"
	"github.com/phrazzld/taskmanager/internal/task"
)

const (
	// systemOwner owns the daemon's own tasks and queues.
	systemOwner = "system"

	heartbeatTaskName = "heartbeat"

	// defaultQueueName is the global queue the daemon keeps open for jobs.
	defaultQueueName        = "default"
	defaultQueueConcurrency = 4

	recentEventCapacity = 512

	// disposeTimeout bounds orchestrator shutdown.
	disposeTimeout = 15 * time.Second
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	orchestrator *task.Orchestrator
	emitter      *events.InMemoryEventEmitter
	recorder     *events.Recorder
	tokens       *middleware.TokenService

	heartbeat    *task.Recurring
	defaultQueue *task.Queue
}

// newApplication creates the orchestrator and starts the daemon's background
// work. watcher may be nil, in which case task settings are fixed at startup.
func newApplication(ctx context.Context, cfg *config.Config, watcher *config.Watcher, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		recorder: events.NewRecorder(recentEventCapacity),
		emitter:  events.NewInMemoryEventEmitter(logger),
	}
	app.emitter.RegisterHandler(app.recorder)
	app.emitter.RegisterHandler(events.EventHandlerFunc(app.logLifecycleEvent))

	var settings task.SettingsSource = task.StaticSettings(cfg.Tasks.Settings())
	if watcher != nil {
		settings = watcher
		watcher.OnChange(func(next *config.Config) {
			logger.Info("task settings updated",
				"queue_graceful_stop", next.Tasks.QueueGracefulStop,
				"graceful_cancel_wait", next.Tasks.GracefulCancelWait,
				"long_running_cancel_wait", next.Tasks.LongRunningCancelWait)
		})
	}
	app.orchestrator = task.New(settings, logger, task.WithEmitter(app.emitter))

	if cfg.Server.AdminSecret != "" {
		tokens, err := middleware.NewTokenService(cfg.Server.AdminSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
		app.tokens = tokens
	}

	queue, err := app.orchestrator.CreateOrGetGlobalQueue(defaultQueueName, defaultQueueConcurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create default queue: %w", err)
	}
	app.defaultQueue = queue

	heartbeat, err := app.orchestrator.ScheduleRecurring(ctx, systemOwner, heartbeatTaskName, true,
		cfg.Tasks.RecurringInterval, app.beat, task.RecurringConfig{
			StartImmediately: true,
			OnError: func(_ context.Context, err error) bool {
				logger.Warn("heartbeat failed", "error", err)
				return true
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule heartbeat: %w", err)
	}
	app.heartbeat = heartbeat

	return app, nil
}

// beat logs a summary of what the orchestrator is tracking.
func (app *application) beat(ctx context.Context) error {
	snapshot := app.orchestrator.Snapshot()
	app.logger.DebugContext(ctx, "heartbeat",
		"tasks", len(snapshot.Tasks),
		"queues", len(snapshot.Queues))
	return nil
}

func (app *application) logLifecycleEvent(ctx context.Context, event *events.Event) error {
	app.logger.DebugContext(ctx, "lifecycle event",
		"event_kind", event.Kind,
		"subject", event.Subject,
		"payload", string(event.Payload))
	return nil
}

// cleanup stops the daemon's background work and disposes the orchestrator.
func (app *application) cleanup(ctx context.Context) error {
	app.logger.Info("Cleaning up application resources")

	app.heartbeat.Stop()
	app.defaultQueue.Release()

	ctx, cancel := context.WithTimeout(ctx, disposeTimeout)
	defer cancel()

	if err := app.orchestrator.Dispose(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to dispose task orchestrator: %w", err)
	}
	return nil
}
