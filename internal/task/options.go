package task

import (
	"context"
	"fmt"
	"strings"
)

// Work is the unit of work executed by a managed task. The returned value
// becomes the task's result when err is nil.
type Work func(ctx context.Context) (any, error)

// Action adapts work that produces no value.
func Action(fn func(ctx context.Context) error) Work {
	return func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	}
}

// PreHook runs before the work of a managed task.
type PreHook func(ctx context.Context) error

// PostHook runs after the work of a managed task completed without error.
// It receives the value returned by the work.
type PostHook func(ctx context.Context, value any) error

// ContinuationFactory is invoked after the triggering task executed and may
// schedule a follow-up owned task. Returning a nil task means nothing was produced.
type ContinuationFactory func(ctx context.Context, o *Orchestrator, trigger Handle, result Result) (*OwnedTask, error)

// AnonymousContinuationFactory is the anonymous-task variant of ContinuationFactory.
type AnonymousContinuationFactory func(ctx context.Context, o *Orchestrator, trigger Handle, result Result) (*AnonymousTask, error)

// Flags alter how the orchestrator treats a task.
type Flags uint8

const (
	// FlagGracefulCancellation marks work that observes its context promptly;
	// bulk cancellation signals it without delay.
	FlagGracefulCancellation Flags = 1 << iota

	// FlagRestartOnFailure reschedules the task when it fails with an error
	// other than cancellation.
	FlagRestartOnFailure

	// FlagRestartOnSuccess reschedules the task when it completes without error.
	FlagRestartOnSuccess
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(FlagGracefulCancellation) {
		parts = append(parts, "graceful_cancellation")
	}
	if f.Has(FlagRestartOnFailure) {
		parts = append(parts, "restart_on_failure")
	}
	if f.Has(FlagRestartOnSuccess) {
		parts = append(parts, "restart_on_success")
	}
	return strings.Join(parts, "|")
}

// NamePolicy decides what ScheduleAsync does when a task with the requested
// name is still running.
type NamePolicy int

const (
	// PolicyTryStart returns the running task.
	PolicyTryStart NamePolicy = iota
	// PolicyCancelAndStart cancels the running task, waits for it to finalize and retries.
	PolicyCancelAndStart
	// PolicyGracefulCancelAndStart applies the tiered cancellation to the running task,
	// waits for it to finalize and retries.
	PolicyGracefulCancelAndStart
	// PolicyWaitAndStart waits for the running task to finalize and retries.
	PolicyWaitAndStart
	// PolicyException fails with ErrAlreadyRunning.
	PolicyException
)

func (p NamePolicy) String() string {
	switch p {
	case PolicyTryStart:
		return "try_start"
	case PolicyCancelAndStart:
		return "cancel_and_start"
	case PolicyGracefulCancelAndStart:
		return "graceful_cancel_and_start"
	case PolicyWaitAndStart:
		return "wait_and_start"
	case PolicyException:
		return "exception"
	default:
		return fmt.Sprintf("NamePolicy(%d)", int(p))
	}
}

func (p NamePolicy) valid() bool {
	return p >= PolicyTryStart && p <= PolicyException
}

// Options is the immutable configuration of a managed task. Build it with
// NewOptions before scheduling; the same value is reused when a task restarts.
type Options struct {
	longRunning            bool
	flags                  Flags
	policy                 NamePolicy
	preHooks               []PreHook
	postHooks              []PostHook
	properties             map[string]any
	continuations          []ContinuationFactory
	anonymousContinuations []AnonymousContinuationFactory
}

// Option configures Options.
type Option func(*Options)

// NewOptions builds an Options value from opts.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		properties: make(map[string]any),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// LongRunning hints that the task should not share a pooled worker.
// Long-running tasks execute on a goroutine locked to its own OS thread.
func LongRunning() Option {
	return func(o *Options) {
		o.longRunning = true
	}
}

// WithFlags adds flags to the options.
func WithFlags(flags Flags) Option {
	return func(o *Options) {
		o.flags |= flags
	}
}

// WithPolicy sets the name collision policy used by ScheduleAsync.
func WithPolicy(policy NamePolicy) Option {
	return func(o *Options) {
		o.policy = policy
	}
}

// ExecuteFirst appends a hook that runs before the work.
func ExecuteFirst(hook PreHook) Option {
	return func(o *Options) {
		if hook != nil {
			o.preHooks = append(o.preHooks, hook)
		}
	}
}

// ExecuteAfter appends a hook that runs after the work.
func ExecuteAfter(hook PostHook) Option {
	return func(o *Options) {
		if hook != nil {
			o.postHooks = append(o.postHooks, hook)
		}
	}
}

// WithProperty stores a free-form property on the task.
func WithProperty(key string, value any) Option {
	return func(o *Options) {
		o.properties[key] = value
	}
}

// ContinueWith appends a factory producing an owned continuation task.
func ContinueWith(factory ContinuationFactory) Option {
	return func(o *Options) {
		if factory != nil {
			o.continuations = append(o.continuations, factory)
		}
	}
}

// ContinueWithAnonymous appends a factory producing an anonymous continuation task.
func ContinueWithAnonymous(factory AnonymousContinuationFactory) Option {
	return func(o *Options) {
		if factory != nil {
			o.anonymousContinuations = append(o.anonymousContinuations, factory)
		}
	}
}

// LongRunning reports whether the dedicated-thread hint is set.
func (o *Options) LongRunning() bool { return o.longRunning }

// Flags returns the behaviour flags.
func (o *Options) Flags() Flags { return o.flags }

// Policy returns the name collision policy.
func (o *Options) Policy() NamePolicy { return o.policy }

// Property returns the property stored under key.
func (o *Options) Property(key string) (any, bool) {
	v, ok := o.properties[key]
	return v, ok
}

// Properties returns a copy of all properties.
func (o *Options) Properties() map[string]any {
	out := make(map[string]any, len(o.properties))
	for k, v := range o.properties {
		out[k] = v
	}
	return out
}

// ContinuationCount returns the number of registered continuation factories
// of both kinds.
func (o *Options) ContinuationCount() int {
	return len(o.continuations) + len(o.anonymousContinuations)
}

func (o *Options) String() string {
	return fmt.Sprintf("long_running=%t flags=%s policy=%s", o.longRunning, o.flags, o.policy)
}

func orDefault(opts *Options) *Options {
	if opts == nil {
		return NewOptions()
	}
	return opts
}
