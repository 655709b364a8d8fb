package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// QueueScope tells whether a queue belongs to one owner or is shared by name.
type QueueScope int

// Queue scopes
const (
	ScopeLocal QueueScope = iota
	ScopeGlobal
)

func (s QueueScope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "local"
}

// Queue is a reference-counted, concurrency-bounded submission point.
// Submissions beyond MaxConcurrency wait, in order, until a slot frees.
//
// Every CreateLocalQueue or CreateOrGetGlobalQueue call that returns a queue
// counts as a reference; callers give it back with Release. A queue without
// references and without pending submissions is stopped in the background.
type Queue struct {
	id             uuid.UUID
	scope          QueueScope
	owner          any
	name           string
	maxConcurrency int
	gracefulStop   time.Duration

	orch    *Orchestrator
	sem     *semaphore.Weighted
	release func(*Queue)
	logger  *slog.Logger

	// ctx is cancelled when the queue stops for good
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	refs    int
	pending int
	closed  bool
	// turn is closed once the latest submission is done competing for a
	// slot; the next submission waits on it, keeping dispatch in order.
	turn chan struct{}

	stopOnce sync.Once
	stopErr  error
	stopped  chan struct{}
}

func newQueue(o *Orchestrator, scope QueueScope, owner any, name string, maxConcurrency int, release func(*Queue)) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		id:             uuid.New(),
		scope:          scope,
		owner:          owner,
		name:           name,
		maxConcurrency: maxConcurrency,
		gracefulStop:   o.settings.Current().QueueGracefulStop,
		orch:           o,
		sem:            semaphore.NewWeighted(int64(maxConcurrency)),
		release:        release,
		ctx:            ctx,
		cancel:         cancel,
		stopped:        make(chan struct{}),
		turn:           make(chan struct{}),
	}
	close(q.turn)
	q.logger = o.logger.With("component", "task_queue", "queue", q.String())
	return q
}

// ID returns the queue's unique identifier
func (q *Queue) ID() uuid.UUID { return q.id }

// Scope returns whether the queue is local or global
func (q *Queue) Scope() QueueScope { return q.scope }

// Owner returns the owning instance of a local queue, nil for global queues.
func (q *Queue) Owner() any { return q.owner }

// Name returns the name of a global queue, empty for local queues.
func (q *Queue) Name() string { return q.name }

// MaxConcurrency returns how many submissions may execute at once.
func (q *Queue) MaxConcurrency() int { return q.maxConcurrency }

// GracefulStopTime returns how long Stop lets pending work finish before cancelling it.
func (q *Queue) GracefulStopTime() time.Duration { return q.gracefulStop }

// References returns the current reference count.
func (q *Queue) References() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.refs
}

// Pending returns the number of submissions that have not finished yet.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Stopped is closed once Stop has completed.
func (q *Queue) Stopped() <-chan struct{} { return q.stopped }

func (q *Queue) String() string {
	if q.scope == ScopeGlobal {
		return fmt.Sprintf("global queue <%s>", q.name)
	}
	return fmt.Sprintf("local queue <%s> of <%v>", q.id, q.owner)
}

func (q *Queue) acquire() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.refs++
}

// Release gives back one reference obtained from the orchestrator.
func (q *Queue) Release() {
	q.mu.Lock()
	if q.refs > 0 {
		q.refs--
	}
	idle := q.refs == 0 && q.pending == 0
	q.mu.Unlock()

	if idle {
		q.release(q)
	}
}

// Enqueue submits work to the queue. The returned future resolves to the
// owned task once a slot was free and the task was scheduled, or to an error
// when the submission could not be scheduled.
//
// Tasks scheduled by a local queue are owned by the queue's owner; tasks of a
// global queue are owned by the queue itself.
func (q *Queue) Enqueue(ctx context.Context, work Work, opts *Options) *Future[*OwnedTask] {
	f := NewFuture[*OwnedTask]()
	if work == nil {
		f.Reject(fmt.Errorf("%w: work is nil", ErrInvalidArgument))
		return f
	}
	if ctx == nil {
		ctx = context.Background()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		f.Reject(ErrQueueClosed)
		return f
	}
	q.pending++
	q.wg.Add(1)
	pending := q.pending
	prev, next := q.turn, make(chan struct{})
	q.turn = next
	q.mu.Unlock()

	q.logger.Debug("task enqueued",
		"pending", pending,
		"max_concurrency", q.maxConcurrency)

	go q.dispatch(ctx, work, opts, f, prev, next)
	return f
}

func (q *Queue) dispatch(ctx context.Context, work Work, opts *Options, f *Future[*OwnedTask], prev <-chan struct{}, next chan<- struct{}) {
	defer q.wg.Done()
	defer q.complete()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(q.ctx, cancel)
	defer stop()

	select {
	case <-prev:
	case <-runCtx.Done():
		// Give up our place without letting later submissions overtake earlier ones
		go func() {
			<-prev
			close(next)
		}()
		f.Reject(runCtx.Err())
		return
	}

	err := q.sem.Acquire(runCtx, 1)
	close(next)
	if err != nil {
		f.Reject(err)
		return
	}

	task, err := q.orch.Schedule(runCtx, q.taskOwner(), work, opts)
	if err != nil {
		q.sem.Release(1)
		f.Reject(err)
		return
	}
	f.Resolve(task)

	<-task.Executed()
	q.sem.Release(1)

	// Keep runCtx alive until continuations, which receive it, are done
	<-task.Finalized()
}

func (q *Queue) complete() {
	q.mu.Lock()
	q.pending--
	idle := q.refs == 0 && q.pending == 0
	q.mu.Unlock()

	if idle {
		q.release(q)
	}
}

func (q *Queue) taskOwner() any {
	if q.scope == ScopeLocal {
		return q.owner
	}
	return q
}

// Stop closes the queue for new submissions, gives pending work up to
// GracefulStopTime to finish, then cancels whatever is left and waits for it.
// Only the first call stops the queue; later calls return the same error.
func (q *Queue) Stop(ctx context.Context) error {
	q.stopOnce.Do(func() {
		q.stopErr = q.stop(ctx)
		close(q.stopped)
		q.orch.emitQueue(q, eventQueueDisposed)
	})
	return q.stopErr
}

func (q *Queue) stop(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	pending := q.pending
	q.mu.Unlock()

	q.logger.Debug("stopping queue", "pending", pending, "graceful_stop", q.gracefulStop)

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()

	if q.gracefulStop > 0 {
		timer := time.NewTimer(q.gracefulStop)
		select {
		case <-drained:
		case <-timer.C:
			q.logger.Warn("queue did not drain within graceful stop time, cancelling pending work",
				"graceful_stop", q.gracefulStop)
		case <-ctx.Done():
		}
		timer.Stop()
	}

	q.cancel()

	select {
	case <-drained:
		q.logger.Debug("queue stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping %s: %w", q, ctx.Err())
	}
}
