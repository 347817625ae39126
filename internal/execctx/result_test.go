package execctx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToolResult_IsSuccess(t *testing.T) {
	assert.True(t, ToolResult{Status: StatusCompleted}.IsSuccess())
	assert.False(t, ToolResult{Status: StatusCompleted, Error: "boom"}.IsSuccess())
	assert.False(t, ToolResult{Status: StatusFailed}.IsSuccess())
}

func TestToolResult_IsFailed(t *testing.T) {
	for _, s := range []Status{StatusFailed, StatusTimeout, StatusCancelled} {
		assert.True(t, ToolResult{Status: s}.IsFailed(), "status %s should be failed", s)
	}
	for _, s := range []Status{StatusCompleted, StatusRunning, StatusPending, StatusIdle} {
		assert.False(t, ToolResult{Status: s}.IsFailed(), "status %s should not be failed", s)
	}
}

func TestNewFailedResult_DerivesStatusAndDuration(t *testing.T) {
	start := time.Now().Add(-250 * time.Millisecond)

	timeout := NewFailedResult("e1", "t1", "deadline exceeded", ErrCodeTimeout, start)
	assert.Equal(t, StatusTimeout, timeout.Status)
	assert.GreaterOrEqual(t, timeout.DurationMs, int64(200))

	cancelled := NewFailedResult("e2", "t1", "cancelled by caller", ErrCodeCancelled, time.Time{})
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Zero(t, cancelled.DurationMs)

	generic := NewFailedResult("e3", "t1", "not found", ErrCodeToolNotFound, time.Time{})
	assert.Equal(t, StatusFailed, generic.Status)
	assert.Equal(t, ErrCodeToolNotFound, generic.ErrorCode)
}

func TestToolExecutionContext_WithDefaults(t *testing.T) {
	calls := 0
	gen := func() string { calls++; return "generated-id" }

	ctx := ToolExecutionContext{}.WithDefaults(gen)
	assert.Equal(t, "generated-id", ctx.ExecutionID)
	assert.Equal(t, PriorityNormal, ctx.Priority)
	assert.Equal(t, 1, calls)

	preset := ToolExecutionContext{ExecutionID: "fixed", Priority: PriorityHigh}.WithDefaults(gen)
	assert.Equal(t, "fixed", preset.ExecutionID)
	assert.Equal(t, PriorityHigh, preset.Priority)
	assert.Equal(t, 1, calls, "generator should not be called when id already set")
}
