package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

// startHTTPServer serves router until ctx is done or the server fails, then
// shuts the server down and cleans up the application.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.Server.Port))
	if err != nil {
		cleanupErr := app.cleanup(context.Background())
		return multierr.Append(fmt.Errorf("failed to listen: %w", err), cleanupErr)
	}
	return app.serve(ctx, listener, router)
}

func (app *application) serve(ctx context.Context, listener net.Listener, router http.Handler) error {
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			app.logger.Error("Server failed", "error", err)
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		runErr = multierr.Append(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	if err := app.cleanup(context.Background()); err != nil {
		app.logger.Error("Application cleanup failed", "error", err)
		runErr = multierr.Append(runErr, err)
	}

	app.logger.Info("Server shutdown completed")
	return runErr
}
