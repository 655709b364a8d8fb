package events

import (
	"context"
	"sync"
)

// DefaultRecorderCapacity is used when NewRecorder is given a non-positive capacity.
const DefaultRecorderCapacity = 256

// Recorder keeps the most recent events in a fixed-size ring.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
	next   int
	full   bool
}

// NewRecorder creates a Recorder holding at most capacity events.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	return &Recorder{events: make([]*Event, capacity)}
}

// HandleEvent stores the event, evicting the oldest one when full.
func (r *Recorder) HandleEvent(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// Recent returns the recorded events, oldest first.
func (r *Recorder) Recent() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]*Event, r.next)
		copy(out, r.events[:r.next])
		return out
	}

	out := make([]*Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	out = append(out, r.events[:r.next]...)
	return out
}
