package demo

import (
	"context"
	"testing"
	"time"

	"github.com/rcourtman/toolmesh-go/internal/adapter"
	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_EchoLifecycle(t *testing.T) {
	a := New(0)
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx))
	require.NoError(t, a.Initialize(ctx)) // idempotent

	tools, err := a.DiscoverTools(ctx, adapter.DiscoverFilter{})
	require.NoError(t, err)
	require.Len(t, tools, 2)

	result := a.ExecuteTool(ctx, "echo", map[string]interface{}{"msg": "hi"}, execctx.ToolExecutionContext{})
	assert.True(t, result.IsSuccess())
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))
	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hi", data["echo"])

	require.NoError(t, a.Shutdown(ctx))
	require.NoError(t, a.Shutdown(ctx)) // idempotent
}

func TestAdapter_ExecuteUnknownTool(t *testing.T) {
	a := New(0)
	require.NoError(t, a.Initialize(context.Background()))

	result := a.ExecuteTool(context.Background(), "nope", nil, execctx.ToolExecutionContext{})
	assert.True(t, result.IsFailed())
	assert.Equal(t, execctx.ErrCodeToolNotFound, result.ErrorCode)
}

func TestAdapter_ValidateParams(t *testing.T) {
	a := New(0)
	require.NoError(t, a.Initialize(context.Background()))

	assert.True(t, a.ValidateParams("echo", map[string]interface{}{"msg": "x"}))
	assert.False(t, a.ValidateParams("echo", map[string]interface{}{}))
	assert.False(t, a.ValidateParams("unknown-tool", map[string]interface{}{}))
}

func TestAdapter_SlowTool_RespectsContextCancellation(t *testing.T) {
	a := New(200 * time.Millisecond)
	require.NoError(t, a.Initialize(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := a.ExecuteTool(ctx, "slow", map[string]interface{}{"label": "x"}, execctx.ToolExecutionContext{})
	assert.True(t, result.IsFailed())
}
