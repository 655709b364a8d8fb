package task

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TaskInfo describes a managed task at the moment a Snapshot was taken.
type TaskInfo struct {
	ID                     uuid.UUID `json:"id"`
	Owner                  string    `json:"owner,omitempty"`
	Name                   string    `json:"name,omitempty"`
	Global                 bool      `json:"global"`
	Anonymous              bool      `json:"anonymous"`
	State                  string    `json:"state"`
	CancellationRequested  bool      `json:"cancellation_requested"`
	LongRunning            bool      `json:"long_running"`
	Flags                  string    `json:"flags"`
	CreatedAt              time.Time `json:"created_at"`
	StartedAt              time.Time `json:"started_at,omitempty"`
	Continuations          int       `json:"continuations"`
	AnonymousContinuations int       `json:"anonymous_continuations"`
}

// QueueInfo describes a queue at the moment a Snapshot was taken.
type QueueInfo struct {
	ID             uuid.UUID `json:"id"`
	Scope          string    `json:"scope"`
	Key            string    `json:"key"`
	MaxConcurrency int       `json:"max_concurrency"`
	References     int       `json:"references"`
	Pending        int       `json:"pending"`
}

// Snapshot is a point-in-time view of everything the orchestrator tracks.
type Snapshot struct {
	TakenAt time.Time   `json:"taken_at"`
	Tasks   []TaskInfo  `json:"tasks"`
	Queues  []QueueInfo `json:"queues"`
}

// Snapshot captures the tracked tasks and queues, oldest task first.
func (o *Orchestrator) Snapshot() Snapshot {
	s := Snapshot{
		TakenAt: time.Now(),
		Tasks:   []TaskInfo{},
		Queues:  []QueueInfo{},
	}

	for _, h := range o.allTasks() {
		s.Tasks = append(s.Tasks, Describe(h))
	}
	sort.SliceStable(s.Tasks, func(i, j int) bool {
		return s.Tasks[i].CreatedAt.Before(s.Tasks[j].CreatedAt)
	})

	o.localQueuesMu.Lock()
	for owner, queues := range o.localQueues {
		for _, q := range queues {
			s.Queues = append(s.Queues, describeQueue(q, fmt.Sprint(owner)))
		}
	}
	o.localQueuesMu.Unlock()

	o.globalQueuesMu.Lock()
	for _, q := range o.globalQueues {
		s.Queues = append(s.Queues, describeQueue(q, q.name))
	}
	o.globalQueuesMu.Unlock()

	sort.Slice(s.Queues, func(i, j int) bool {
		if s.Queues[i].Scope != s.Queues[j].Scope {
			return s.Queues[i].Scope < s.Queues[j].Scope
		}
		return s.Queues[i].Key < s.Queues[j].Key
	})
	return s
}

// Describe captures the current state of h.
func Describe(h Handle) TaskInfo {
	info := TaskInfo{
		ID:                     h.ID(),
		State:                  h.State().String(),
		CancellationRequested:  h.CancellationRequested(),
		LongRunning:            h.Options().LongRunning(),
		Flags:                  h.Options().Flags().String(),
		CreatedAt:              h.CreatedAt(),
		StartedAt:              h.StartedAt(),
		Continuations:          len(h.Continuations()),
		AnonymousContinuations: len(h.AnonymousContinuations()),
	}
	switch t := h.(type) {
	case *OwnedTask:
		info.Owner = fmt.Sprint(t.owner)
		info.Name = t.name
		info.Global = t.isGlobal
	case *AnonymousTask:
		info.Anonymous = true
	}
	return info
}

func describeQueue(q *Queue, key string) QueueInfo {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueInfo{
		ID:             q.id,
		Scope:          q.scope.String(),
		Key:            key,
		MaxConcurrency: q.maxConcurrency,
		References:     q.refs,
		Pending:        q.pending,
	}
}
