package api

import (
	"github.com/phrazzld/taskmanager/internal/events"
	"github.com/phrazzld/taskmanager/internal/task"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Tasks  int    `json:"tasks"`
	Queues int    `json:"queues"`
	Uptime string `json:"uptime"`
}

// OwnerTasksResponse lists the tasks affected by an owner-scoped operation.
type OwnerTasksResponse struct {
	Owner string          `json:"owner"`
	Tasks []task.TaskInfo `json:"tasks"`
}

// EnqueueJobRequest defines the payload for submitting a demo job to a global queue.
type EnqueueJobRequest struct {
	// DurationMs is how long the job sleeps before completing
	DurationMs int `json:"duration_ms" validate:"gte=0,lte=600000"`

	// Fail makes the job return an error instead of a value
	Fail bool `json:"fail"`

	// MaxConcurrency is used only when the queue does not exist yet
	MaxConcurrency int `json:"max_concurrency" validate:"omitempty,gte=1,lte=64"`
}

// EnqueueJobResponse describes the queue a job was submitted to.
type EnqueueJobResponse struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
}

// EventsResponse lists recent lifecycle events, oldest first.
type EventsResponse struct {
	Events []*events.Event `json:"events"`
}
