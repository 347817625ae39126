package toolmetrics

import (
	"context"

	"github.com/rcourtman/toolmesh-go/internal/coordinator"
	"github.com/rcourtman/toolmesh-go/internal/execctx"
)

// ObservingExecutor wraps a coordinator.Executor so every completed
// execution's duration reaches the histogram the moment it finishes,
// instead of waiting for the next periodic Collect.
type ObservingExecutor struct {
	Executor coordinator.Executor
	Metrics  *Metrics
}

// ExecuteTool satisfies coordinator.Executor.
func (o ObservingExecutor) ExecuteTool(ctx context.Context, name string, params map[string]interface{}, execCtx execctx.ToolExecutionContext) execctx.ToolResult {
	result := o.Executor.ExecuteTool(ctx, name, params, execCtx)
	o.Metrics.ObserveDuration(float64(result.DurationMs) / 1000)
	return result
}

var _ coordinator.Executor = ObservingExecutor{}
