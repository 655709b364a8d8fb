package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOptions_Defaults(t *testing.T) {
	o := NewOptions()

	assert.False(t, o.LongRunning())
	assert.Equal(t, Flags(0), o.Flags())
	assert.Equal(t, PolicyTryStart, o.Policy())
	assert.Empty(t, o.Properties())
	assert.Equal(t, 0, o.ContinuationCount())
	assert.Equal(t, "long_running=false flags=none policy=try_start", o.String())
}

func TestNewOptions_Build(t *testing.T) {
	noopFactory := func(context.Context, *Orchestrator, Handle, Result) (*OwnedTask, error) { return nil, nil }
	noopAnonymous := func(context.Context, *Orchestrator, Handle, Result) (*AnonymousTask, error) { return nil, nil }

	o := NewOptions(
		LongRunning(),
		WithFlags(FlagGracefulCancellation),
		WithFlags(FlagRestartOnFailure),
		WithPolicy(PolicyWaitAndStart),
		WithProperty("tenant", "acme"),
		ExecuteFirst(nil),
		ExecuteFirst(func(context.Context) error { return nil }),
		ExecuteAfter(func(context.Context, any) error { return nil }),
		ContinueWith(noopFactory),
		ContinueWith(nil),
		ContinueWithAnonymous(noopAnonymous),
		nil,
	)

	assert.True(t, o.LongRunning())
	assert.True(t, o.Flags().Has(FlagGracefulCancellation))
	assert.True(t, o.Flags().Has(FlagRestartOnFailure))
	assert.False(t, o.Flags().Has(FlagRestartOnSuccess))
	assert.Equal(t, PolicyWaitAndStart, o.Policy())
	assert.Len(t, o.preHooks, 1)
	assert.Len(t, o.postHooks, 1)
	assert.Equal(t, 2, o.ContinuationCount())

	v, ok := o.Property("tenant")
	assert.True(t, ok)
	assert.Equal(t, "acme", v)

	// Properties hands out a copy
	props := o.Properties()
	props["tenant"] = "changed"
	v, _ = o.Property("tenant")
	assert.Equal(t, "acme", v)
}

func TestFlags_String(t *testing.T) {
	tests := []struct {
		flags Flags
		want  string
	}{
		{0, "none"},
		{FlagGracefulCancellation, "graceful_cancellation"},
		{FlagRestartOnFailure | FlagRestartOnSuccess, "restart_on_failure|restart_on_success"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.flags.String())
	}
}

func TestNamePolicy_String(t *testing.T) {
	assert.Equal(t, "try_start", PolicyTryStart.String())
	assert.Equal(t, "cancel_and_start", PolicyCancelAndStart.String())
	assert.Equal(t, "graceful_cancel_and_start", PolicyGracefulCancelAndStart.String())
	assert.Equal(t, "wait_and_start", PolicyWaitAndStart.String())
	assert.Equal(t, "exception", PolicyException.String())
	assert.Equal(t, "NamePolicy(9)", NamePolicy(9).String())
	assert.False(t, NamePolicy(9).valid())
	assert.True(t, PolicyException.valid())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "executing", StateExecuting.String())
	assert.Equal(t, "finalized", StateFinalized.String())
	assert.Equal(t, "State(7)", State(7).String())
}
