package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskmanager/internal/api/shared"
	"github.com/phrazzld/taskmanager/internal/events"
	"github.com/phrazzld/taskmanager/internal/task"
)

// errJobFailed is returned by demo jobs submitted with fail set.
var errJobFailed = errors.New("job failed on request")

// TaskHandler serves the task orchestration endpoints.
type TaskHandler struct {
	orchestrator *task.Orchestrator
	recorder     *events.Recorder
	stopTimeout  time.Duration
	startedAt    time.Time
	logger       *slog.Logger
}

// NewTaskHandler creates a TaskHandler. recorder may be nil, in which case the
// events endpoint returns an empty list. stopTimeout bounds how long a stop
// request waits for an owner's tasks.
func NewTaskHandler(
	orchestrator *task.Orchestrator,
	recorder *events.Recorder,
	stopTimeout time.Duration,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		orchestrator: orchestrator,
		recorder:     recorder,
		stopTimeout:  stopTimeout,
		startedAt:    time.Now(),
		logger:       logger.With("component", "task_handler"),
	}
}

// Health handles GET /health.
func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	snapshot := h.orchestrator.Snapshot()
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ok",
		Tasks:  len(snapshot.Tasks),
		Queues: len(snapshot.Queues),
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.orchestrator.Snapshot().Tasks)
}

// ListQueues handles GET /api/queues.
func (h *TaskHandler) ListQueues(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.orchestrator.Snapshot().Queues)
}

// GetTask handles GET /api/tasks/{name}, looking up a running global task.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	t, ok := h.orchestrator.GetByName(name)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task.Describe(t))
}

// ListOwnerTasks handles GET /api/owners/{owner}/tasks.
func (h *TaskHandler) ListOwnerTasks(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	shared.RespondWithJSON(w, r, http.StatusOK, ownerTasks(owner, h.orchestrator.GetOwnedBy(owner)))
}

// CancelOwner handles POST /api/owners/{owner}/cancel.
func (h *TaskHandler) CancelOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	tasks := h.orchestrator.CancelAllFor(owner)
	h.logger.InfoContext(r.Context(), "cancellation requested for owner",
		"owner", owner,
		"count", len(tasks))

	shared.RespondWithJSON(w, r, http.StatusOK, ownerTasks(owner, tasks))
}

// StopOwner handles POST /api/owners/{owner}/stop. It waits for the owner's
// queues and tasks to finish, up to the handler's stop timeout.
func (h *TaskHandler) StopOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	ctx, cancel := context.WithTimeout(r.Context(), h.stopTimeout)
	defer cancel()

	tasks, err := h.orchestrator.StopAllFor(ctx, owner)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err),
			fmt.Errorf("failed to stop tasks of owner %s: %w", owner, err))
		return
	}

	h.logger.InfoContext(r.Context(), "stopped tasks of owner",
		"owner", owner,
		"count", len(tasks))
	shared.RespondWithJSON(w, r, http.StatusOK, ownerTasks(owner, tasks))
}

// EnqueueJob handles POST /api/queues/{name}/jobs. The job runs on the named
// global queue, which is created on first use and disposed once it drains and
// nothing else references it.
func (h *TaskHandler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req EnqueueJobRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		message := "Invalid request body"
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			message = SanitizeValidationError(validationErrs)
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err)
		return
	}
	if req.MaxConcurrency == 0 {
		req.MaxConcurrency = 1
	}

	q, err := h.orchestrator.CreateOrGetGlobalQueue(name, req.MaxConcurrency)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	defer q.Release()

	// The job outlives the request.
	future := q.Enqueue(context.Background(), demoJob(time.Duration(req.DurationMs)*time.Millisecond, req.Fail), nil)
	if err := rejection(future); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.DebugContext(r.Context(), "job enqueued",
		"queue", q.Name(),
		"duration_ms", req.DurationMs,
		"fail", req.Fail)

	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueJobResponse{
		Queue:   q.Name(),
		Pending: q.Pending(),
	})
}

// ListEvents handles GET /api/events.
func (h *TaskHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	recent := []*events.Event{}
	if h.recorder != nil {
		recent = h.recorder.Recent()
	}
	shared.RespondWithJSON(w, r, http.StatusOK, EventsResponse{Events: recent})
}

func ownerTasks(owner string, tasks []*task.OwnedTask) OwnerTasksResponse {
	infos := make([]task.TaskInfo, 0, len(tasks))
	for _, t := range tasks {
		infos = append(infos, task.Describe(t))
	}
	return OwnerTasksResponse{Owner: owner, Tasks: infos}
}

// rejection returns the error of a future that was rejected before Enqueue returned.
func rejection(f *task.Future[*task.OwnedTask]) error {
	if _, ok, err := f.TryGet(); ok {
		return err
	}
	return nil
}

func demoJob(d time.Duration, fail bool) task.Work {
	return func(ctx context.Context) (any, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		if fail {
			return nil, errJobFailed
		}
		return d.String(), nil
	}
}
