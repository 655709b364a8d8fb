// Package events provides types and interfaces for task lifecycle notifications.
//
// The task orchestrator emits an Event whenever a managed task is scheduled,
// executed, finalized or restarted, and whenever a queue is created or disposed.
// Consumers register handlers without the orchestrator knowing about them,
// which keeps ops tooling (recent-event views, metrics exporters) decoupled
// from the scheduling core.
//
// The primary components are:
// - Event: a single lifecycle notification with a JSON payload
// - EventHandler: interface for components that consume events
// - EventEmitter: interface for components that publish events
// - Recorder: an EventHandler that keeps the most recent events in memory
package events
