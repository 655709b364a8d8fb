package task

import (
	"context"
	"errors"
)

// Common errors returned by the Orchestrator and its queues
var (
	// ErrAlreadyRunning is returned under PolicyException when a task with the
	// requested name has not been finalized yet.
	ErrAlreadyRunning = errors.New("managed task with the same name is already running")

	// ErrUnknownPolicy is returned when a NamePolicy value is not recognized.
	ErrUnknownPolicy = errors.New("unknown name policy")

	// ErrQueueClosed is returned for submissions to a stopped queue.
	ErrQueueClosed = errors.New("task queue is closed")

	// ErrClosed is returned by scheduling calls after Dispose has completed.
	ErrClosed = errors.New("task orchestrator is closed")

	// ErrInvalidArgument is returned when a scheduling call receives an unusable argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrWaitTimeout is returned by WaitTimeout when the maximum duration expires
	// before the task is finalized.
	ErrWaitTimeout = errors.New("timed out waiting for managed task")
)

// IsCanceled reports whether err represents cancellation of a managed task.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
