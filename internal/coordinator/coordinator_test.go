package coordinator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	fn func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult
}

func (s *stubExecutor) ExecuteTool(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
	return s.fn(ctx, name, params, ec)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestCoordinator_SubmitAndComplete_Basic(t *testing.T) {
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		return execctx.ToolResult{Status: execctx.StatusCompleted, Data: "ok"}
	}}
	c := New(exec, Config{})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	id := c.SubmitExecution("echo", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Second)

	waitFor(t, time.Second, func() bool {
		status, ok := c.GetStatus(id)
		return ok && status.Terminal()
	})

	result, ok := c.GetResult(id)
	require.True(t, ok)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, id, result.ExecutionID)
}

// Scenario 4: the coordinator never runs more than maxConcurrent
// executions at once (spec.md §8).
func TestCoordinator_ConcurrencyBound(t *testing.T) {
	var current, maxObserved int32
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&maxObserved)
			if n <= old || atomic.CompareAndSwapInt32(&maxObserved, old, n) {
				break
			}
		}
		time.Sleep(40 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return execctx.ToolResult{Status: execctx.StatusCompleted}
	}}

	c := New(exec, Config{MaxConcurrentExecutions: 2})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	const n = 6
	for i := 0; i < n; i++ {
		c.SubmitExecution("slow", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Second)
	}

	waitFor(t, 3*time.Second, func() bool {
		s := c.Stats()
		return s.CompletedExecutions+s.FailedExecutions == n
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&maxObserved), int32(2))
}

// Scenario 5: a per-request timeout takes precedence over a
// slow-or-unresponsive adapter (spec.md §8). The stub ignores ctx
// entirely to prove the coordinator reports timeout to the caller
// regardless of adapter cooperation.
func TestCoordinator_TimeoutPrecedence(t *testing.T) {
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		time.Sleep(150 * time.Millisecond)
		return execctx.ToolResult{Status: execctx.StatusCompleted}
	}}
	c := New(exec, Config{})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	id := c.SubmitExecution("slow", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, 20*time.Millisecond)

	waitFor(t, time.Second, func() bool {
		status, ok := c.GetStatus(id)
		return ok && status.Terminal()
	})

	result, ok := c.GetResult(id)
	require.True(t, ok)
	assert.Equal(t, execctx.StatusTimeout, result.Status)
	assert.Equal(t, execctx.ErrCodeTimeout, result.ErrorCode)
}

func TestCoordinator_CancelPendingRequest(t *testing.T) {
	release := make(chan struct{})
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		<-release
		return execctx.ToolResult{Status: execctx.StatusCompleted}
	}}
	c := New(exec, Config{MaxConcurrentExecutions: 1})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	blocker := c.SubmitExecution("slow", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Minute)
	waitFor(t, time.Second, func() bool {
		status, ok := c.GetStatus(blocker)
		return ok && status == execctx.StatusRunning
	})

	pending := c.SubmitExecution("slow", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Minute)
	waitFor(t, time.Second, func() bool {
		status, ok := c.GetStatus(pending)
		return ok && status == execctx.StatusPending
	})

	require.NoError(t, c.CancelExecution(pending))

	result, ok := c.GetResult(pending)
	require.True(t, ok)
	assert.Equal(t, execctx.StatusCancelled, result.Status)

	close(release)
}

func TestCoordinator_CancelRunningRequest(t *testing.T) {
	started := make(chan struct{})
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		close(started)
		<-ctx.Done()
		return execctx.ToolResult{Status: execctx.StatusCompleted}
	}}
	c := New(exec, Config{})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	id := c.SubmitExecution("slow", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Minute)
	<-started

	require.NoError(t, c.CancelExecution(id))

	waitFor(t, time.Second, func() bool {
		status, ok := c.GetStatus(id)
		return ok && status.Terminal()
	})

	result, ok := c.GetResult(id)
	require.True(t, ok)
	assert.Equal(t, execctx.StatusCancelled, result.Status)
}

func TestCoordinator_CancelUnknownExecutionReturnsNotFound(t *testing.T) {
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		return execctx.ToolResult{Status: execctx.StatusCompleted}
	}}
	c := New(exec, Config{})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	err := c.CancelExecution("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCoordinator_RetentionSweepExpiresOldResults(t *testing.T) {
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		return execctx.ToolResult{Status: execctx.StatusCompleted}
	}}
	c := New(exec, Config{RetentionWindow: 10 * time.Millisecond, SweepInterval: 10 * time.Millisecond})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	id := c.SubmitExecution("echo", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Second)
	waitFor(t, time.Second, func() bool {
		_, ok := c.GetResult(id)
		return ok
	})

	waitFor(t, time.Second, func() bool {
		_, ok := c.GetResult(id)
		return !ok
	})
}

func TestCoordinator_PriorityOrderingDispatchesHighFirst(t *testing.T) {
	var order []string
	gate := make(chan struct{})
	done := make(chan struct{})
	exec := &stubExecutor{fn: func(ctx context.Context, name string, params map[string]interface{}, ec execctx.ToolExecutionContext) execctx.ToolResult {
		if name == "blocker" {
			<-gate
			return execctx.ToolResult{Status: execctx.StatusCompleted}
		}
		order = append(order, name)
		if len(order) == 3 {
			close(done)
		}
		return execctx.ToolResult{Status: execctx.StatusCompleted}
	}}

	c := New(exec, Config{MaxConcurrentExecutions: 1})
	c.Start(context.Background())
	defer c.Shutdown(context.Background())

	// Occupy the single slot so the three priority-tagged requests all
	// land in the pending queue before any of them dispatches.
	blocker := c.SubmitExecution("blocker", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Minute)
	waitFor(t, time.Second, func() bool {
		status, ok := c.GetStatus(blocker)
		return ok && status == execctx.StatusRunning
	})

	c.SubmitExecution("low", nil, execctx.ToolExecutionContext{}, execctx.PriorityLow, time.Second)
	c.SubmitExecution("high", nil, execctx.ToolExecutionContext{}, execctx.PriorityHigh, time.Second)
	c.SubmitExecution("normal", nil, execctx.ToolExecutionContext{}, execctx.PriorityNormal, time.Second)

	waitFor(t, time.Second, func() bool {
		return c.Stats().CurrentQueueSize == 3
	})

	close(gate)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("executions did not complete in time")
	}

	require.Len(t, order, 3)
	assert.Equal(t, []string{"high", "normal", "low"}, order)
}
