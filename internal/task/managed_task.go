package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
)

// State is the lifecycle position of a managed task
type State int32

// Possible task states, in lifecycle order
const (
	StateCreated State = iota
	StateStarted
	StateExecuting
	StateExecuted
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateExecuting:
		return "executing"
	case StateExecuted:
		return "executed"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Result is the outcome of a managed task. Err is nil on success; a cancelled
// task carries an error for which IsCanceled reports true.
type Result struct {
	Value any
	Err   error
}

// Handle is the behaviour shared by anonymous and owned tasks.
type Handle interface {
	ID() uuid.UUID
	Options() *Options
	State() State

	// Cancel signals cancellation immediately.
	Cancel()
	// CancelAfter signals cancellation once d has elapsed.
	CancelAfter(d time.Duration)
	// CancellationRequested reports whether Cancel or CancelAfter was called.
	CancellationRequested() bool

	// Executed is closed once the result has been captured.
	Executed() <-chan struct{}
	// Finalized is closed once continuations ran and the task left the orchestrator.
	Finalized() <-chan struct{}
	// Result returns the captured outcome. It is only meaningful after Executed is closed.
	Result() Result

	Wait(ctx context.Context) error
	WaitTimeout(ctx context.Context, d time.Duration) error

	Continuations() []*OwnedTask
	AnonymousContinuations() []*AnonymousTask

	CreatedAt() time.Time
	StartedAt() time.Time
	FinishedAt() time.Time
	Duration() time.Duration

	String() string
}

// managedTask holds the lifecycle shared by AnonymousTask and OwnedTask.
type managedTask struct {
	id      uuid.UUID
	options *Options
	work    Work
	orch    *Orchestrator
	logger  *slog.Logger

	// parent is the caller's context. It is reused when the task restarts
	// and handed to continuation factories.
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	// self is the AnonymousTask or OwnedTask wrapping this core
	self Handle

	// finalize removes the task from the orchestrator indices;
	// afterFinalize evaluates restarts once the indices no longer hold the task.
	finalize      func()
	afterFinalize func()

	state           atomic.Int32
	cancelRequested atomic.Bool

	mu                     sync.Mutex
	result                 Result
	createdAt              time.Time
	startedAt              time.Time
	finishedAt             time.Time
	cancelTimer            *time.Timer
	continuations          []*OwnedTask
	anonymousContinuations []*AnonymousTask

	executed  chan struct{}
	finalized chan struct{}
}

func newManagedTask(parent context.Context, o *Orchestrator, work Work, opts *Options) *managedTask {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	return &managedTask{
		id:        uuid.New(),
		options:   opts,
		work:      work,
		orch:      o,
		logger:    o.logger,
		parent:    parent,
		ctx:       ctx,
		cancel:    cancel,
		createdAt: time.Now(),
		executed:  make(chan struct{}),
		finalized: make(chan struct{}),
	}
}

// ID returns the task's unique identifier
func (t *managedTask) ID() uuid.UUID { return t.id }

// Options returns the options the task was scheduled with
func (t *managedTask) Options() *Options { return t.options }

// State returns the current lifecycle state
func (t *managedTask) State() State { return State(t.state.Load()) }

// Cancel signals the task's context immediately.
func (t *managedTask) Cancel() {
	t.cancelRequested.Store(true)
	t.cancel()
}

// CancelAfter signals the task's context once d has elapsed. The task counts
// as cancellation-requested from the moment of the call.
func (t *managedTask) CancelAfter(d time.Duration) {
	if d <= 0 {
		t.Cancel()
		return
	}
	t.cancelRequested.Store(true)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelTimer != nil {
		t.cancelTimer.Stop()
	}
	t.cancelTimer = time.AfterFunc(d, t.cancel)
}

// CancellationRequested reports whether Cancel or CancelAfter was called.
func (t *managedTask) CancellationRequested() bool { return t.cancelRequested.Load() }

// Executed is closed once the result has been captured.
func (t *managedTask) Executed() <-chan struct{} { return t.executed }

// Finalized is closed once the task has been finalized.
func (t *managedTask) Finalized() <-chan struct{} { return t.finalized }

// Result returns the captured outcome.
func (t *managedTask) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Wait blocks until the task is finalized or ctx is done.
func (t *managedTask) Wait(ctx context.Context) error {
	select {
	case <-t.finalized:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout blocks until the task is finalized, d elapses or ctx is done.
// Expiry of d yields ErrWaitTimeout; ctx being done yields ctx.Err().
func (t *managedTask) WaitTimeout(ctx context.Context, d time.Duration) error {
	select {
	case <-t.finalized:
		return nil
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.finalized:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrWaitTimeout, d)
	}
}

// Continuations returns the owned tasks produced by continuation factories so far.
func (t *managedTask) Continuations() []*OwnedTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*OwnedTask, len(t.continuations))
	copy(out, t.continuations)
	return out
}

// AnonymousContinuations returns the anonymous tasks produced by continuation factories so far.
func (t *managedTask) AnonymousContinuations() []*AnonymousTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*AnonymousTask, len(t.anonymousContinuations))
	copy(out, t.anonymousContinuations)
	return out
}

// CreatedAt returns when the task was created
func (t *managedTask) CreatedAt() time.Time { return t.createdAt }

// StartedAt returns when the task was picked up by a worker goroutine
func (t *managedTask) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

// FinishedAt returns when the task finished executing
func (t *managedTask) FinishedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finishedAt
}

// Duration returns how long the task executed.
func (t *managedTask) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() || t.finishedAt.IsZero() {
		return 0
	}
	return t.finishedAt.Sub(t.startedAt)
}

// start hands the task to a worker goroutine.
func (t *managedTask) start() {
	t.state.Store(int32(StateStarted))
	go t.run()
}

func (t *managedTask) run() {
	if t.options.LongRunning() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	t.mu.Lock()
	t.startedAt = time.Now()
	t.mu.Unlock()
	t.state.Store(int32(StateExecuting))

	result := t.execute()

	t.mu.Lock()
	t.result = result
	t.finishedAt = time.Now()
	t.mu.Unlock()
	t.state.Store(int32(StateExecuted))
	close(t.executed)
	t.orch.emitTask(t.self, eventExecuted)

	t.triggerContinuations()

	t.finalize()
	t.afterFinalize()
	t.release()
	t.state.Store(int32(StateFinalized))
	close(t.finalized)
}

// execute runs pre-hooks, work and post-hooks in order. Nothing escapes:
// errors and panics become the result.
func (t *managedTask) execute() (result Result) {
	var pc panics.Catcher
	pc.Try(func() {
		result = t.invoke()
	})
	if r := pc.Recovered(); r != nil {
		result = Result{Err: r.AsError()}
	}
	return result
}

func (t *managedTask) invoke() Result {
	ctx := t.ctx
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	for _, hook := range t.options.preHooks {
		if err := hook(ctx); err != nil {
			return Result{Err: fmt.Errorf("pre-execution hook failed: %w", err)}
		}
	}

	value, err := t.work(ctx)
	if err != nil {
		return Result{Err: err}
	}

	for _, hook := range t.options.postHooks {
		if err := hook(ctx, value); err != nil {
			return Result{Err: fmt.Errorf("post-execution hook failed: %w", err)}
		}
	}

	return Result{Value: value}
}

// triggerContinuations invokes the anonymous factories and then the owned
// factories, one at a time in registration order.
func (t *managedTask) triggerContinuations() {
	if t.options.ContinuationCount() == 0 {
		return
	}
	result := t.Result()

	for i, factory := range t.options.anonymousContinuations {
		var produced *AnonymousTask
		err := t.invokeFactory(func() error {
			var err error
			produced, err = factory(t.parent, t.orch, t.self, result)
			return err
		})
		if err != nil {
			t.logger.Error("anonymous continuation factory failed",
				"task_id", t.id,
				"factory_index", i,
				"error", err)
			continue
		}
		if produced != nil {
			t.mu.Lock()
			t.anonymousContinuations = append(t.anonymousContinuations, produced)
			t.mu.Unlock()
		}
	}

	for i, factory := range t.options.continuations {
		var produced *OwnedTask
		err := t.invokeFactory(func() error {
			var err error
			produced, err = factory(t.parent, t.orch, t.self, result)
			return err
		})
		if err != nil {
			t.logger.Error("continuation factory failed",
				"task_id", t.id,
				"factory_index", i,
				"error", err)
			continue
		}
		if produced != nil {
			t.mu.Lock()
			t.continuations = append(t.continuations, produced)
			t.mu.Unlock()
		}
	}
}

func (t *managedTask) invokeFactory(fn func() error) (err error) {
	var pc panics.Catcher
	pc.Try(func() {
		err = fn()
	})
	if r := pc.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

// release frees the context and any pending deferred cancellation.
func (t *managedTask) release() {
	t.mu.Lock()
	if t.cancelTimer != nil {
		t.cancelTimer.Stop()
	}
	t.mu.Unlock()
	t.cancel()
}

func (t *managedTask) continuationProgress() string {
	total := t.options.ContinuationCount()
	if total == 0 {
		return ""
	}
	t.mu.Lock()
	current := len(t.continuations) + len(t.anonymousContinuations)
	t.mu.Unlock()
	return fmt.Sprintf("[%d/%d]", current, total)
}

// AnonymousTask is an unowned, unnamed managed task.
type AnonymousTask struct {
	*managedTask
}

func (t *AnonymousTask) String() string {
	return fmt.Sprintf("anonymous task <%s>(%s)%s", t.id, t.State(), t.continuationProgress())
}

// OwnedTask is a managed task tied to an owner and optionally named.
type OwnedTask struct {
	*managedTask
	owner    any
	name     string
	isGlobal bool
}

// Owner returns the identity the task is indexed under.
func (t *OwnedTask) Owner() any { return t.owner }

// Name returns the task name, empty for unnamed tasks.
func (t *OwnedTask) Name() string { return t.name }

// IsGlobal reports whether the name is unique process-wide instead of per owner.
func (t *OwnedTask) IsGlobal() bool { return t.isGlobal }

func (t *OwnedTask) String() string {
	kind := "unnamed managed task"
	switch {
	case t.name != "" && t.isGlobal:
		kind = fmt.Sprintf("global managed task <%s>", t.name)
	case t.name != "":
		kind = fmt.Sprintf("managed task <%s>", t.name)
	}
	return fmt.Sprintf("%s owned by <%v> <%s>(%s)%s", kind, t.owner, t.id, t.State(), t.continuationProgress())
}

var (
	_ Handle = (*AnonymousTask)(nil)
	_ Handle = (*OwnedTask)(nil)
)
