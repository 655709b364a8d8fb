package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager/internal/events"
	"github.com/phrazzld/taskmanager/internal/redact"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
)

// Lifecycle events published through the optional emitter
const (
	eventScheduled     = events.KindTaskScheduled
	eventExecuted      = events.KindTaskExecuted
	eventFinalized     = events.KindTaskFinalized
	eventRestarted     = events.KindTaskRestarted
	eventQueueCreated  = events.KindQueueCreated
	eventQueueDisposed = events.KindQueueDisposed
)

// Orchestrator is the registry and control plane for managed tasks and queues.
// It indexes owned tasks by owner and by global name, enforces name policies,
// hands out reference-counted queues and drives shutdown.
//
// Each registry has its own lock and no lock is held while waiting.
type Orchestrator struct {
	settings SettingsSource
	logger   *slog.Logger
	emitter  events.EventEmitter

	anonymousMu sync.Mutex
	anonymous   map[uuid.UUID]*AnonymousTask

	ownedMu sync.Mutex
	owned   map[uuid.UUID]*OwnedTask
	byOwner map[any][]*OwnedTask
	byName  map[string]*OwnedTask

	localQueuesMu sync.Mutex
	localQueues   map[any][]*Queue

	globalQueuesMu sync.Mutex
	globalQueues   map[string]*Queue

	disposing atomic.Bool
	closed    atomic.Bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithEmitter publishes task and queue lifecycle events to emitter.
func WithEmitter(emitter events.EventEmitter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.emitter = emitter
	}
}

// New creates an Orchestrator. A nil settings source falls back to
// DefaultSettings and a nil logger discards all records.
func New(settings SettingsSource, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if settings == nil {
		settings = StaticSettings(DefaultSettings())
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	o := &Orchestrator{
		settings:     settings,
		logger:       logger.With("component", "task_orchestrator"),
		anonymous:    make(map[uuid.UUID]*AnonymousTask),
		owned:        make(map[uuid.UUID]*OwnedTask),
		byOwner:      make(map[any][]*OwnedTask),
		byName:       make(map[string]*OwnedTask),
		localQueues:  make(map[any][]*Queue),
		globalQueues: make(map[string]*Queue),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Settings returns the settings currently in effect.
func (o *Orchestrator) Settings() Settings {
	return o.settings.Current()
}

// ScheduleAnonymous starts work as an anonymous task. ctx is the caller's
// cancellation signal; cancelling it cancels the task.
func (o *Orchestrator) ScheduleAnonymous(ctx context.Context, work Work, opts *Options) (*AnonymousTask, error) {
	if work == nil {
		return nil, fmt.Errorf("%w: work is nil", ErrInvalidArgument)
	}
	opts = orDefault(opts)

	o.anonymousMu.Lock()
	if o.closed.Load() {
		o.anonymousMu.Unlock()
		return nil, ErrClosed
	}
	t := o.newAnonymous(ctx, work, opts)
	o.anonymous[t.id] = t
	o.anonymousMu.Unlock()

	o.launch(t.managedTask)
	return t, nil
}

// Schedule starts work as an unnamed task owned by owner.
func (o *Orchestrator) Schedule(ctx context.Context, owner any, work Work, opts *Options) (*OwnedTask, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if work == nil {
		return nil, fmt.Errorf("%w: work is nil", ErrInvalidArgument)
	}
	opts = orDefault(opts)

	o.ownedMu.Lock()
	if o.closed.Load() {
		o.ownedMu.Unlock()
		return nil, ErrClosed
	}
	t := o.newOwned(ctx, owner, "", false, work, opts)
	o.registerOwnedLocked(t)
	o.ownedMu.Unlock()

	o.launch(t.managedTask)
	return t, nil
}

// TrySchedule starts a named task unless a task with the same name is still
// running, in which case the running task is returned. The name policy in
// opts is ignored and the call never blocks. An empty name schedules an
// unnamed task.
func (o *Orchestrator) TrySchedule(ctx context.Context, owner any, name string, global bool, work Work, opts *Options) (*OwnedTask, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if work == nil {
		return nil, fmt.Errorf("%w: work is nil", ErrInvalidArgument)
	}

	t, started, err := o.tryStart(ctx, owner, name, global, work, orDefault(opts))
	if err != nil {
		return nil, err
	}
	if !started {
		o.logger.Debug("named task already running, not starting a new one",
			"task_name", name,
			"owner", fmt.Sprint(owner),
			"existing", t.String())
	}
	return t, nil
}

// ScheduleAsync schedules a named task according to the name policy in opts.
// When a task with the same name is still running the policy decides whether
// to return it, fail, or cancel or wait for it and try again. Retries repeat
// until the start succeeds, since other callers may claim the name in between.
//
// The future resolves to the started (or, for PolicyTryStart, the existing)
// task. It is rejected with ErrAlreadyRunning under PolicyException, with
// ErrUnknownPolicy for unrecognized policies, and with ctx.Err() when ctx is
// done while waiting.
func (o *Orchestrator) ScheduleAsync(ctx context.Context, owner any, name string, global bool, work Work, opts *Options) *Future[*OwnedTask] {
	f := NewFuture[*OwnedTask]()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateOwner(owner); err != nil {
		f.Reject(err)
		return f
	}
	if work == nil {
		f.Reject(fmt.Errorf("%w: work is nil", ErrInvalidArgument))
		return f
	}
	opts = orDefault(opts)
	if !opts.Policy().valid() {
		f.Reject(fmt.Errorf("%w: %s", ErrUnknownPolicy, opts.Policy()))
		return f
	}

	o.logger.Debug("scheduling named task",
		"task_name", name,
		"owner", fmt.Sprint(owner),
		"global", global,
		"policy", opts.Policy().String())

	o.scheduleNamed(ctx, owner, name, global, work, opts, f)
	return f
}

func (o *Orchestrator) scheduleNamed(ctx context.Context, owner any, name string, global bool, work Work, opts *Options, f *Future[*OwnedTask]) {
	t, started, err := o.tryStart(ctx, owner, name, global, work, opts)
	if err != nil {
		f.Reject(err)
		return
	}
	if started {
		f.Resolve(t)
		return
	}

	log := o.logger.With("task_name", name, "policy", opts.Policy().String(), "existing", t.String())
	switch opts.Policy() {
	case PolicyTryStart:
		log.Debug("named task already running, returning it")
		f.Resolve(t)
		return
	case PolicyException:
		log.Debug("named task already running, rejecting")
		f.Reject(fmt.Errorf("%w: %s", ErrAlreadyRunning, name))
		return
	case PolicyCancelAndStart:
		log.Debug("cancelling running named task before starting")
		t.Cancel()
	case PolicyGracefulCancelAndStart:
		log.Debug("gracefully cancelling running named task before starting")
		o.cancelTiered(t)
	case PolicyWaitAndStart:
		log.Debug("waiting for running named task to finish before starting")
	}

	go func() {
		select {
		case <-t.Finalized():
		case <-ctx.Done():
			f.Reject(ctx.Err())
			return
		}
		o.scheduleNamed(ctx, owner, name, global, work, opts, f)
	}()
}

// tryStart registers and starts a named task if no task with the same name is
// running. It reports the task it found or started and whether it started it.
func (o *Orchestrator) tryStart(ctx context.Context, owner any, name string, global bool, work Work, opts *Options) (*OwnedTask, bool, error) {
	if name == "" {
		t, err := o.Schedule(ctx, owner, work, opts)
		return t, err == nil, err
	}

	o.ownedMu.Lock()
	if o.closed.Load() {
		o.ownedMu.Unlock()
		return nil, false, ErrClosed
	}
	if existing := o.findNamedLocked(owner, name, global); existing != nil {
		o.ownedMu.Unlock()
		return existing, false, nil
	}
	t := o.newOwned(ctx, owner, name, global, work, opts)
	o.registerOwnedLocked(t)
	o.ownedMu.Unlock()

	o.launch(t.managedTask)
	return t, true, nil
}

// findNamedLocked must be called with ownedMu held.
func (o *Orchestrator) findNamedLocked(owner any, name string, global bool) *OwnedTask {
	if global {
		if t, ok := o.byName[strings.ToLower(name)]; ok {
			return t
		}
	}
	for _, t := range o.byOwner[owner] {
		if t.name != "" && strings.EqualFold(t.name, name) {
			return t
		}
	}
	return nil
}

// registerOwnedLocked must be called with ownedMu held.
func (o *Orchestrator) registerOwnedLocked(t *OwnedTask) {
	o.owned[t.id] = t
	o.byOwner[t.owner] = append(o.byOwner[t.owner], t)
	if t.isGlobal && t.name != "" {
		o.byName[strings.ToLower(t.name)] = t
	}
}

func (o *Orchestrator) newAnonymous(ctx context.Context, work Work, opts *Options) *AnonymousTask {
	core := newManagedTask(ctx, o, work, opts)
	t := &AnonymousTask{managedTask: core}
	core.self = t
	core.logger = o.logger.With("task_id", core.id)
	core.finalize = func() { o.finalizeAnonymous(t) }
	core.afterFinalize = func() { o.evaluateRestart(t) }
	return t
}

func (o *Orchestrator) newOwned(ctx context.Context, owner any, name string, global bool, work Work, opts *Options) *OwnedTask {
	core := newManagedTask(ctx, o, work, opts)
	t := &OwnedTask{
		managedTask: core,
		owner:       owner,
		name:        name,
		isGlobal:    global && name != "",
	}
	core.self = t
	core.logger = o.logger.With("task_id", core.id, "task_name", name)
	core.finalize = func() { o.finalizeOwned(t) }
	core.afterFinalize = func() { o.evaluateRestart(t) }
	return t
}

func (o *Orchestrator) launch(t *managedTask) {
	o.logger.Debug("scheduled managed task", "task", t.self.String(), "options", t.options.String())
	o.emitTask(t.self, eventScheduled)
	t.start()
}

func (o *Orchestrator) finalizeAnonymous(t *AnonymousTask) {
	o.anonymousMu.Lock()
	delete(o.anonymous, t.id)
	o.anonymousMu.Unlock()

	o.logFinalized(t)
	o.emitTask(t, eventFinalized)
}

func (o *Orchestrator) finalizeOwned(t *OwnedTask) {
	o.ownedMu.Lock()
	delete(o.owned, t.id)
	if tasks := removeTask(o.byOwner[t.owner], t); len(tasks) == 0 {
		delete(o.byOwner, t.owner)
	} else {
		o.byOwner[t.owner] = tasks
	}
	if t.isGlobal {
		key := strings.ToLower(t.name)
		if o.byName[key] == t {
			delete(o.byName, key)
		}
	}
	o.ownedMu.Unlock()

	o.logFinalized(t)
	o.emitTask(t, eventFinalized)
}

func removeTask(tasks []*OwnedTask, t *OwnedTask) []*OwnedTask {
	for i, candidate := range tasks {
		if candidate == t {
			return append(tasks[:i:i], tasks[i+1:]...)
		}
	}
	return tasks
}

func (o *Orchestrator) logFinalized(h Handle) {
	o.logger.Debug("finalized managed task",
		"task", h.String(),
		"created_at", h.CreatedAt(),
		"started_at", h.StartedAt(),
		"finished_at", h.FinishedAt(),
		"duration", h.Duration())
}

// evaluateRestart reschedules a finalized task when its flags ask for it.
// Tasks whose cancellation was requested never restart.
func (o *Orchestrator) evaluateRestart(h Handle) {
	if h.CancellationRequested() || o.closed.Load() {
		return
	}

	flags := h.Options().Flags()
	err := h.Result().Err
	switch {
	case flags.Has(FlagRestartOnFailure) && err != nil && !IsCanceled(err):
		o.logger.Debug("task failed and has restart on failure set, restarting",
			"task", h.String(),
			"error", err)
	case flags.Has(FlagRestartOnSuccess) && err == nil:
		o.logger.Debug("task succeeded and has restart on success set, restarting",
			"task", h.String())
	default:
		return
	}

	switch t := h.(type) {
	case *AnonymousTask:
		restarted, err := o.ScheduleAnonymous(t.parent, t.work, t.options)
		o.afterRestart(t, restarted, err)
	case *OwnedTask:
		if t.name == "" {
			restarted, err := o.Schedule(t.parent, t.owner, t.work, t.options)
			o.afterRestart(t, restarted, err)
			return
		}
		f := o.ScheduleAsync(t.parent, t.owner, t.name, t.isGlobal, t.work, t.options)
		select {
		case <-f.Done():
			restarted, err := f.Get(context.Background())
			o.afterRestart(t, restarted, err)
		default:
			// The name is held by someone else and the policy makes us wait
			go func() {
				restarted, err := f.Get(context.Background())
				o.afterRestart(t, restarted, err)
			}()
		}
	}
}

func (o *Orchestrator) afterRestart(previous Handle, restarted Handle, err error) {
	if err != nil {
		o.logger.Error("failed to restart managed task",
			"task", previous.String(),
			"error", err)
		return
	}
	if isNilHandle(restarted) {
		return
	}
	o.emitTask(restarted, eventRestarted)
}

func isNilHandle(h Handle) bool {
	switch t := h.(type) {
	case nil:
		return true
	case *AnonymousTask:
		return t == nil
	case *OwnedTask:
		return t == nil
	}
	return false
}

// CreateLocalQueue creates a new queue bound to owner. Every call creates an
// independent queue; the caller holds one reference.
func (o *Orchestrator) CreateLocalQueue(owner any, maxConcurrency int) (*Queue, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("%w: max concurrency must be at least 1, got %d", ErrInvalidArgument, maxConcurrency)
	}

	o.localQueuesMu.Lock()
	if o.closed.Load() {
		o.localQueuesMu.Unlock()
		return nil, ErrClosed
	}
	q := newQueue(o, ScopeLocal, owner, "", maxConcurrency, o.releaseQueue)
	q.acquire()
	o.localQueues[owner] = append(o.localQueues[owner], q)
	o.localQueuesMu.Unlock()

	o.logger.Debug("created local queue", "queue", q.String(), "max_concurrency", maxConcurrency)
	o.emitQueue(q, eventQueueCreated)
	return q, nil
}

// CreateOrGetGlobalQueue returns the global queue registered under name,
// compared case-insensitively, or creates it. maxConcurrency only applies when
// the queue is created. Each call adds a reference.
func (o *Orchestrator) CreateOrGetGlobalQueue(name string, maxConcurrency int) (*Queue, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: queue name is empty", ErrInvalidArgument)
	}
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("%w: max concurrency must be at least 1, got %d", ErrInvalidArgument, maxConcurrency)
	}
	key := strings.ToLower(name)

	o.globalQueuesMu.Lock()
	if o.closed.Load() {
		o.globalQueuesMu.Unlock()
		return nil, ErrClosed
	}
	if q, ok := o.globalQueues[key]; ok {
		q.acquire()
		o.globalQueuesMu.Unlock()
		return q, nil
	}
	q := newQueue(o, ScopeGlobal, nil, name, maxConcurrency, o.releaseQueue)
	q.acquire()
	o.globalQueues[key] = q
	o.globalQueuesMu.Unlock()

	o.logger.Debug("created global queue", "queue", q.String(), "max_concurrency", maxConcurrency)
	o.emitQueue(q, eventQueueCreated)
	return q, nil
}

// releaseQueue retires a queue that has no references and no pending work.
// The queue is removed from its index and stopped by an anonymous task.
func (o *Orchestrator) releaseQueue(q *Queue) {
	if !o.unregisterIdleQueue(q) {
		return
	}

	o.logger.Debug("queue released, disposing in background", "queue", q.String())
	stop := Action(func(ctx context.Context) error {
		return q.Stop(ctx)
	})
	if _, err := o.ScheduleAnonymous(context.Background(), stop, nil); err != nil {
		go func() {
			if err := q.Stop(context.Background()); err != nil {
				o.logger.Error("failed to stop released queue", "queue", q.String(), "error", err)
			}
		}()
	}
}

func (o *Orchestrator) unregisterIdleQueue(q *Queue) bool {
	idle := func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.refs == 0 && q.pending == 0
	}

	if q.scope == ScopeGlobal {
		o.globalQueuesMu.Lock()
		defer o.globalQueuesMu.Unlock()
		key := strings.ToLower(q.name)
		if o.globalQueues[key] != q || !idle() {
			return false
		}
		delete(o.globalQueues, key)
		return true
	}

	o.localQueuesMu.Lock()
	defer o.localQueuesMu.Unlock()
	queues := o.localQueues[q.owner]
	for i, candidate := range queues {
		if candidate != q {
			continue
		}
		if !idle() {
			return false
		}
		queues = append(queues[:i:i], queues[i+1:]...)
		if len(queues) == 0 {
			delete(o.localQueues, q.owner)
		} else {
			o.localQueues[q.owner] = queues
		}
		return true
	}
	return false
}

// GetByName returns the global task registered under name if it has not
// finished executing yet.
func (o *Orchestrator) GetByName(name string) (*OwnedTask, bool) {
	o.ownedMu.Lock()
	t, ok := o.byName[strings.ToLower(name)]
	o.ownedMu.Unlock()

	if !ok || t.State() >= StateExecuted {
		return nil, false
	}
	return t, true
}

// GetOwnedBy returns the tasks of owner that have not finished executing yet.
func (o *Orchestrator) GetOwnedBy(owner any) []*OwnedTask {
	if validateOwner(owner) != nil {
		return nil
	}

	o.ownedMu.Lock()
	tasks := make([]*OwnedTask, len(o.byOwner[owner]))
	copy(tasks, o.byOwner[owner])
	o.ownedMu.Unlock()

	running := tasks[:0]
	for _, t := range tasks {
		if t.State() < StateExecuted {
			running = append(running, t)
		}
	}
	return running
}

// CancelAllFor signals cancellation to every running task of owner and
// returns the signalled tasks.
func (o *Orchestrator) CancelAllFor(owner any) []*OwnedTask {
	tasks := o.GetOwnedBy(owner)
	for _, t := range tasks {
		o.cancelTiered(t)
	}
	if len(tasks) > 0 {
		o.logger.Debug("cancelled tasks of owner", "owner", fmt.Sprint(owner), "count", len(tasks))
	}
	return tasks
}

// cancelTiered signals cancellation according to how the task expects to be
// stopped. Graceful tasks are cancelled now; long-running and ordinary tasks
// get their signal after the configured wait.
func (o *Orchestrator) cancelTiered(h Handle) {
	settings := o.settings.Current()
	opts := h.Options()

	switch {
	case opts.Flags().Has(FlagGracefulCancellation):
		h.Cancel()
	case opts.LongRunning():
		h.CancelAfter(settings.LongRunningCancelWait)
	default:
		h.CancelAfter(settings.GracefulCancelWait)
	}
}

// StopAllFor stops every local queue of owner, cancels every task of owner and
// waits for both. Failures other than cancellation are combined into the
// returned error; ctx expiring while waiting is reported as ctx.Err().
func (o *Orchestrator) StopAllFor(ctx context.Context, owner any) ([]*OwnedTask, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	log := o.logger.With("owner", fmt.Sprint(owner))

	o.localQueuesMu.Lock()
	queues := o.localQueues[owner]
	delete(o.localQueues, owner)
	o.localQueuesMu.Unlock()

	var errs error
	if len(queues) > 0 {
		log.Debug("stopping local queues of owner", "count", len(queues))
		errs = o.stopQueues(ctx, queues)
	}

	tasks := o.CancelAllFor(owner)
	log.Debug("waiting for tasks of owner to finalize", "count", len(tasks))

	var filtered error
	for _, err := range multierr.Errors(errs) {
		if !IsCanceled(err) {
			filtered = multierr.Append(filtered, err)
		}
	}

	for _, t := range tasks {
		if err := t.Wait(ctx); err != nil {
			return tasks, multierr.Append(filtered, err)
		}
	}
	return tasks, filtered
}

func (o *Orchestrator) stopQueues(ctx context.Context, queues []*Queue) error {
	var (
		wg   conc.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, q := range queues {
		q := q
		wg.Go(func() {
			if err := q.Stop(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return errs
}

// Dispose shuts the orchestrator down. It stops every queue and cancels every
// task, repeating until both are gone since cancellation and continuations may
// schedule new work. Individual failures are logged. Once Dispose returns,
// scheduling calls fail with ErrClosed. Only the first call does any work.
func (o *Orchestrator) Dispose(ctx context.Context) error {
	if !o.disposing.CompareAndSwap(false, true) {
		return nil
	}
	o.logger.Info("disposing task orchestrator")

	for {
		queues := o.takeQueues()
		if len(queues) > 0 {
			o.logger.Debug("stopping queues", "count", len(queues))
			for _, err := range multierr.Errors(o.stopQueues(ctx, queues)) {
				o.logger.Warn("failed to stop queue during dispose", "error", err)
			}
		}

		tasks := o.allTasks()
		if len(queues) == 0 && len(tasks) == 0 {
			break
		}

		o.logger.Debug("cancelling tasks", "count", len(tasks))
		for _, t := range tasks {
			if !t.CancellationRequested() {
				o.cancelTiered(t)
			}
		}
		for _, t := range tasks {
			if err := t.Wait(ctx); err != nil {
				o.logger.Warn("dispose interrupted before all tasks finalized",
					"remaining", len(tasks),
					"error", err)
				o.closed.Store(true)
				return err
			}
		}
	}

	o.closed.Store(true)
	o.logger.Info("task orchestrator disposed")
	return nil
}

func (o *Orchestrator) takeQueues() []*Queue {
	var queues []*Queue

	o.localQueuesMu.Lock()
	for _, qs := range o.localQueues {
		queues = append(queues, qs...)
	}
	clear(o.localQueues)
	o.localQueuesMu.Unlock()

	o.globalQueuesMu.Lock()
	for _, q := range o.globalQueues {
		queues = append(queues, q)
	}
	clear(o.globalQueues)
	o.globalQueuesMu.Unlock()

	return queues
}

func (o *Orchestrator) allTasks() []Handle {
	var tasks []Handle

	o.anonymousMu.Lock()
	for _, t := range o.anonymous {
		tasks = append(tasks, t)
	}
	o.anonymousMu.Unlock()

	o.ownedMu.Lock()
	for _, t := range o.owned {
		tasks = append(tasks, t)
	}
	o.ownedMu.Unlock()

	return tasks
}

type taskEventPayload struct {
	Task       string `json:"task"`
	Owner      string `json:"owner,omitempty"`
	Name       string `json:"name,omitempty"`
	Global     bool   `json:"global,omitempty"`
	State      string `json:"state"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

type queueEventPayload struct {
	Queue          string `json:"queue"`
	Scope          string `json:"scope"`
	MaxConcurrency int    `json:"max_concurrency"`
}

func (o *Orchestrator) emitTask(h Handle, kind events.Kind) {
	if o.emitter == nil {
		return
	}

	payload := taskEventPayload{
		Task:  h.String(),
		State: h.State().String(),
	}
	if t, ok := h.(*OwnedTask); ok {
		payload.Owner = fmt.Sprint(t.owner)
		payload.Name = t.name
		payload.Global = t.isGlobal
	}
	if h.State() >= StateExecuted {
		if err := h.Result().Err; err != nil {
			payload.Error = redact.Error(err)
		}
		payload.DurationMs = h.Duration().Milliseconds()
	}

	o.emit(kind, h.ID(), payload)
}

func (o *Orchestrator) emitQueue(q *Queue, kind events.Kind) {
	if o.emitter == nil {
		return
	}
	o.emit(kind, q.id, queueEventPayload{
		Queue:          q.String(),
		Scope:          q.scope.String(),
		MaxConcurrency: q.maxConcurrency,
	})
}

func (o *Orchestrator) emit(kind events.Kind, subject uuid.UUID, payload any) {
	event, err := events.NewEvent(kind, subject, payload)
	if err != nil {
		o.logger.Warn("failed to build lifecycle event", "event_kind", kind, "error", err)
		return
	}
	if err := o.emitter.EmitEvent(context.Background(), event); err != nil {
		o.logger.Warn("failed to emit lifecycle event", "event_kind", kind, "error", err)
	}
}

func validateOwner(owner any) error {
	if owner == nil {
		return fmt.Errorf("%w: owner is nil", ErrInvalidArgument)
	}
	if !reflect.TypeOf(owner).Comparable() {
		return fmt.Errorf("%w: owner of type %T cannot be used as an identity", ErrInvalidArgument, owner)
	}
	return nil
}
