// Package task schedules and tracks units of asynchronous work inside one process.
//
// The Orchestrator is the only registry. It starts work as managed tasks, which
// are either anonymous or owned by an opaque owner value and optionally named.
// Named tasks are deduplicated per owner, or process-wide when global, and a
// NamePolicy decides what happens when a name is already taken.
//
// Every task runs pre-execution hooks, its work and post-execution hooks in
// order, captures the outcome (panics included) as its Result, runs its
// continuation factories one after another and is then finalized: removed from
// the indices and, if its flags ask for it, restarted as a new task.
//
// Queues bound how many submissions execute at once. Local queues belong to an
// owner; global queues are shared by a case-insensitive name. Both are
// reference counted and stopped in the background once released and idle.
//
// ScheduleDelayed defers a scheduling call, and ScheduleRecurring builds a
// named task that repeats an action on an interval.
//
// Shutdown is explicit: Dispose stops every queue and cancels every task until
// nothing is left.
package task
