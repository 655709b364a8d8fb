package task

import (
	"context"
	"fmt"
	"time"
)

// RecurringConfig tunes ScheduleRecurring.
type RecurringConfig struct {
	// StartImmediately runs the first iteration right away instead of after
	// one interval.
	StartImmediately bool

	// OnError decides whether the loop keeps going after action failed.
	// Without it the first failure ends the task with that error.
	OnError func(ctx context.Context, err error) bool

	// Options for the recurring task. Defaults to graceful cancellation with
	// PolicyCancelAndStart.
	Options *Options
}

// Recurring is a handle to a task started by ScheduleRecurring.
type Recurring struct {
	task    *OwnedTask
	delayed *DelayedPending[*OwnedTask]
}

// Task returns the recurring task, waiting for a deferred start if needed.
func (r *Recurring) Task(ctx context.Context) (*OwnedTask, error) {
	if r.task != nil {
		return r.task, nil
	}
	return r.delayed.Future().Get(ctx)
}

// Stop cancels the recurring task or its pending start.
func (r *Recurring) Stop() {
	if r.task != nil {
		r.task.Cancel()
		return
	}
	r.delayed.Cancel()
}

// ScheduleRecurring schedules a named task that runs action every interval
// until it is cancelled.
func (o *Orchestrator) ScheduleRecurring(ctx context.Context, owner any, name string, global bool, interval time.Duration, action func(ctx context.Context) error, cfg RecurringConfig) (*Recurring, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: recurring task name is empty", ErrInvalidArgument)
	}
	if action == nil {
		return nil, fmt.Errorf("%w: action is nil", ErrInvalidArgument)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidArgument, interval)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := cfg.Options
	if opts == nil {
		opts = NewOptions(
			WithFlags(FlagGracefulCancellation),
			WithPolicy(PolicyCancelAndStart),
		)
	}

	work := Action(func(ctx context.Context) error {
		for {
			if err := action(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if cfg.OnError == nil || !cfg.OnError(ctx, err) {
					return err
				}
			}

			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	})

	if cfg.StartImmediately {
		t, err := o.ScheduleAsync(ctx, owner, name, global, work, opts).Get(ctx)
		if err != nil {
			return nil, err
		}
		return &Recurring{task: t}, nil
	}

	delayed := ScheduleDelayed(ctx, o, interval, true, func(ctx context.Context, o *Orchestrator) (*OwnedTask, error) {
		return o.ScheduleAsync(ctx, owner, name, global, work, opts).Get(ctx)
	})
	return &Recurring{delayed: delayed}, nil
}
