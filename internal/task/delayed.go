package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"
)

// ScheduleFunc performs a deferred scheduling call against the orchestrator.
type ScheduleFunc[T Handle] func(ctx context.Context, o *Orchestrator) (T, error)

// DelayedPending defers a scheduling call by a fixed delay. Its future
// resolves exactly once: to the scheduled task, to the scheduling error, or
// to a cancellation error when the deferral was cancelled or disposed first.
type DelayedPending[T Handle] struct {
	created time.Time
	delay   time.Duration
	cascade bool
	orch    *Orchestrator
	fn      ScheduleFunc[T]
	future  *Future[T]

	// scheduleCtx is handed to fn. With cascade it is cancelled by Cancel so
	// that a task scheduled from it observes the cancellation.
	scheduleCtx    context.Context
	scheduleCancel context.CancelFunc

	mu         sync.Mutex
	timer      *time.Timer
	stopWatch  func() bool
	canceled   bool
	scheduling bool
	disposed   bool
}

// ScheduleDelayed calls fn after delay and resolves the returned future with
// its outcome. Cancelling ctx before the delay elapses cancels the deferral.
//
// When cascade is set, cancelling after fn was already invoked also cancels
// the task fn produced, as soon as it is available.
func ScheduleDelayed[T Handle](ctx context.Context, o *Orchestrator, delay time.Duration, cascade bool, fn ScheduleFunc[T]) *DelayedPending[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	d := &DelayedPending[T]{
		created:        time.Now(),
		delay:          delay,
		cascade:        cascade,
		orch:           o,
		fn:             fn,
		future:         NewFuture[T](),
		scheduleCtx:    ctx,
		scheduleCancel: func() {},
	}
	if fn == nil || o == nil {
		d.future.Reject(fmt.Errorf("%w: orchestrator and schedule function are required", ErrInvalidArgument))
		d.disposed = true
		return d
	}
	if cascade {
		d.scheduleCtx, d.scheduleCancel = context.WithCancel(ctx)
	}

	d.mu.Lock()
	d.timer = time.AfterFunc(delay, d.trigger)
	d.stopWatch = context.AfterFunc(ctx, d.Cancel)
	d.mu.Unlock()

	o.logger.Debug("delayed schedule pending", "delay", delay, "trigger_at", d.TriggerAt(), "cascade", cascade)
	return d
}

// Created returns when the deferral was created.
func (d *DelayedPending[T]) Created() time.Time { return d.created }

// Delay returns the configured delay.
func (d *DelayedPending[T]) Delay() time.Duration { return d.delay }

// TriggerAt returns when the scheduling call is due.
func (d *DelayedPending[T]) TriggerAt() time.Time { return d.created.Add(d.delay) }

// Canceled reports whether Cancel was called.
func (d *DelayedPending[T]) Canceled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canceled
}

// Future returns the future resolving to the scheduled task.
func (d *DelayedPending[T]) Future() *Future[T] { return d.future }

func (d *DelayedPending[T]) trigger() {
	d.mu.Lock()
	if d.disposed || d.canceled {
		d.mu.Unlock()
		return
	}
	d.scheduling = true
	d.mu.Unlock()

	var (
		value T
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() {
		value, err = d.fn(d.scheduleCtx, d.orch)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}

	if err != nil {
		d.orch.logger.Warn("delayed schedule failed", "error", err)
		d.future.Reject(err)
	} else {
		d.future.Resolve(value)
	}

	d.mu.Lock()
	cancelProduced := d.cascade && d.canceled && err == nil
	d.mu.Unlock()
	if cancelProduced && !isNilHandle(value) {
		value.Cancel()
	}

	d.Dispose()
}

// Cancel cancels the deferral. Before the delay elapses the future resolves
// to a cancellation error and the scheduling call never happens. Afterwards
// the cancellation is recorded and, with cascade, the produced task is
// cancelled.
func (d *DelayedPending[T]) Cancel() {
	d.mu.Lock()
	if d.canceled {
		d.mu.Unlock()
		return
	}
	d.canceled = true
	scheduling := d.scheduling
	d.mu.Unlock()

	if d.cascade {
		d.scheduleCancel()
	}
	if !scheduling {
		d.Dispose()
		return
	}

	if value, ok, err := d.future.TryGet(); ok && err == nil && d.cascade && !isNilHandle(value) {
		value.Cancel()
	}
}

// Dispose stops the timer and makes sure the future is resolved, as
// cancelled unless the scheduling call already started. Calling it more than
// once has no effect.
func (d *DelayedPending[T]) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	scheduling := d.scheduling
	stopWatch := d.stopWatch
	d.mu.Unlock()

	if stopWatch != nil {
		stopWatch()
	}
	if !scheduling {
		d.future.Reject(fmt.Errorf("delayed schedule cancelled: %w", context.Canceled))
	}
}
