package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened to a task or queue.
type Kind string

// Lifecycle event kinds
const (
	KindTaskScheduled Kind = "task_scheduled"
	KindTaskExecuted  Kind = "task_executed"
	KindTaskFinalized Kind = "task_finalized"
	KindTaskRestarted Kind = "task_restarted"
	KindQueueCreated  Kind = "queue_created"
	KindQueueDisposed Kind = "queue_disposed"
)

// Event represents a single lifecycle notification.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Kind indicates what happened
	Kind Kind `json:"kind"`

	// Subject is the ID of the task or queue the event is about
	Subject uuid.UUID `json:"subject"`

	// Payload contains kind-specific details serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event of the given kind about subject.
// A nil payload produces an event without payload.
func NewEvent(kind Kind, subject uuid.UUID, payload interface{}) (*Event, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = data
	}

	return &Event{
		ID:        uuid.New(),
		Kind:      kind,
		Subject:   subject,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a plain function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
