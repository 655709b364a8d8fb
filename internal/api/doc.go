// Package api exposes the task orchestrator over HTTP. It lists tracked tasks,
// queues and recent lifecycle events, lets operators cancel or stop everything
// an owner runs, and accepts demo jobs for the global queues. Handlers
// translate orchestrator errors to HTTP status codes without leaking internal
// details.
package api
