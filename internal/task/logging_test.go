package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskmanager/internal/platform/logger"
	"github.com/phrazzld/taskmanager/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findEntry(logBuf *logger.TestLogBuffer, msg string) map[string]interface{} {
	entries, err := logBuf.GetLogEntries()
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry["msg"] == msg {
			return entry
		}
	}
	return nil
}

func TestOrchestrator_LogsFinalizedTask(t *testing.T) {
	log, logBuf := logger.GetTestLogger(t)
	o := task.New(task.StaticSettings(task.DefaultSettings()), log)

	owned, err := o.Schedule(context.Background(), "reports", func(context.Context) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, owned.Wait(ctx))

	var entry map[string]interface{}
	require.Eventually(t, func() bool {
		entry = findEntry(logBuf, "finalized managed task")
		return entry != nil
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, "DEBUG", entry["level"])
	assert.Contains(t, entry["task"], owned.ID().String())
	duration, ok := entry["duration"].(float64)
	require.True(t, ok, "duration is logged in nanoseconds")
	assert.Equal(t, float64(owned.Duration()), duration)
	assert.GreaterOrEqual(t, time.Duration(duration), 5*time.Millisecond)

	require.NoError(t, o.Dispose(ctx))
	logger.AssertLogContains(t, logBuf, "task orchestrator disposed")
}
