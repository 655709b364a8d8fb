package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the task endpoints on r. Mutating endpoints are
// wrapped by protect when it is non-nil.
func (h *TaskHandler) RegisterRoutes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{name}", h.GetTask)
		r.Get("/queues", h.ListQueues)
		r.Get("/events", h.ListEvents)
		r.Get("/owners/{owner}/tasks", h.ListOwnerTasks)

		// Protected routes
		r.Group(func(r chi.Router) {
			if protect != nil {
				r.Use(protect)
			}
			r.Post("/owners/{owner}/cancel", h.CancelOwner)
			r.Post("/owners/{owner}/stop", h.StopOwner)
			r.Post("/queues/{name}/jobs", h.EnqueueJob)
		})
	})
}
