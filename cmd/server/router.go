package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskmanager/internal/api"
	apiMiddleware "github.com/phrazzld/taskmanager/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	var protect func(http.Handler) http.Handler
	if app.tokens != nil {
		protect = apiMiddleware.NewAuthMiddleware(app.tokens).Authenticate
	} else {
		app.logger.Warn("admin secret not configured; mutating endpoints are unauthenticated")
	}

	// Long enough for queues to drain and long-running tasks to be signalled
	stopTimeout := app.config.Tasks.QueueGracefulStop + app.config.Tasks.LongRunningCancelWait + time.Second
	taskHandler := api.NewTaskHandler(app.orchestrator, app.recorder, stopTimeout, app.logger)
	taskHandler.RegisterRoutes(r, protect)

	return r
}
