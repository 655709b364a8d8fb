package task

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testTimeout bounds every wait in this package's tests
const testTimeout = 2 * time.Second

// setupTestLogger creates a logger for tests
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func testSettings() StaticSettings {
	return StaticSettings{
		QueueGracefulStop:     100 * time.Millisecond,
		GracefulCancelWait:    20 * time.Millisecond,
		LongRunningCancelWait: 50 * time.Millisecond,
	}
}

// newTestOrchestrator creates an orchestrator that is disposed when the test ends.
func newTestOrchestrator(t *testing.T, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	return newTestOrchestratorWithSettings(t, testSettings(), opts...)
}

func newTestOrchestratorWithSettings(t *testing.T, settings SettingsSource, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	o := New(settings, setupTestLogger(), opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.Dispose(ctx)
	})
	return o
}

// waitFinalized fails the test if h is not finalized within testTimeout.
func waitFinalized(t *testing.T, h Handle) {
	t.Helper()
	require.NoError(t, h.WaitTimeout(context.Background(), testTimeout), "waiting for %s", h)
}

// waitClosed fails the test if ch is not closed within testTimeout.
func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// blockUntilCanceled is work that returns once its context is cancelled.
func blockUntilCanceled(started chan<- struct{}) Work {
	return func(ctx context.Context) (any, error) {
		if started != nil {
			close(started)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func returning(v any) Work {
	return func(context.Context) (any, error) {
		return v, nil
	}
}

type testOwner struct {
	name string
}

func (o *testOwner) String() string { return o.name }
