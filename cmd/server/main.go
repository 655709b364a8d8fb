// Package main implements the task manager daemon. It runs a task
// orchestrator with a recurring heartbeat and a shared job queue, and exposes
// the orchestrator's state and owner-scoped cancellation over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/taskmanager/internal/api/middleware"
	"github.com/phrazzld/taskmanager/internal/config"
	"github.com/phrazzld/taskmanager/internal/platform/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command serves.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "taskmanager",
		Short: "Task orchestration daemon",
		Long: `taskmanager runs a task orchestrator with a recurring heartbeat and a
shared job queue, and serves its state and owner-scoped cancellation over HTTP.
Configuration comes from TASKMGR_* environment variables and an optional YAML
file that is watched for changes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file; watched for changes")

	root.AddCommand(newTokenCmd(&configPath))
	return root
}

func newTokenCmd(configPath *string) *cobra.Command {
	var lifetime time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Print an admin token for the mutating endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			token, err := issueToken(cfg, args[0], lifetime)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&lifetime, "lifetime", 24*time.Hour, "token lifetime")
	return cmd
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	// Watch only once the configured handler is in place so reload logs use it
	cfg, watcher, err := loadAppConfig(configPath, appLogger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"config_file", configPath,
		"auth_enabled", cfg.Server.AdminSecret != "")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, watcher, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

// loadAppConfig loads the configuration, watching the file when one is given.
// The returned watcher is nil without a file.
func loadAppConfig(path string, log *slog.Logger) (*config.Config, *config.Watcher, error) {
	if path == "" {
		cfg, err := config.Load("")
		return cfg, nil, err
	}

	watcher, err := config.Watch(path, log)
	if err != nil {
		return nil, nil, err
	}
	return watcher.Config(), watcher, nil
}

func issueToken(cfg *config.Config, subject string, lifetime time.Duration) (string, error) {
	tokens, err := middleware.NewTokenService(cfg.Server.AdminSecret)
	if err != nil {
		return "", err
	}
	return tokens.Issue(subject, lifetime)
}
