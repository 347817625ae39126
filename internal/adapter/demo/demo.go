// Package demo provides an illustrative adapter used by tests and by
// cmd/toolmeshd when no real framework adapter is configured. It plays
// the role the original source's five illustrative providers (agno,
// llamaindex, owl, fastmcp, haystack) play in spec.md — the core does
// not distinguish it from a real one.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rcourtman/toolmesh-go/internal/adapter"
	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/rcourtman/toolmesh-go/internal/toolspec"
	"github.com/rs/zerolog/log"
)

// Handler runs one tool's logic against validated params.
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Adapter is a small, self-contained framework adapter: it declares a
// fixed set of tools at construction time and runs them in-process.
// Real adapters follow the same shape while delegating ExecuteTool to
// an external framework or process.
type Adapter struct {
	*adapter.Base

	handlers map[string]Handler
	delay    time.Duration // artificial latency, for coordinator tests
}

// New constructs the demo adapter with its built-in tool set: an
// "echo" tool (spec.md §8 scenario 1) and a "slow" tool whose handler
// sleeps for delay, used to exercise the coordinator's concurrency and
// timeout behavior deterministically.
func New(delay time.Duration) *Adapter {
	a := &Adapter{
		Base:     adapter.NewBase("demo", []toolspec.Category{toolspec.CategoryCustom}),
		handlers: make(map[string]Handler),
		delay:    delay,
	}
	a.handlers["echo"] = a.handleEcho
	a.handlers["slow"] = a.handleSlow
	return a
}

func (a *Adapter) specs() []toolspec.ToolSpec {
	now := time.Now()
	return []toolspec.ToolSpec{
		{
			Name:        "echo",
			Version:     "1.0.0",
			Description: "Echoes the msg parameter back as data.",
			Category:    toolspec.CategoryCustom,
			Provider:    a.ProviderName(),
			InputSchema: toolspec.Schema{
				Type:       "object",
				Properties: map[string]toolspec.PropertySchema{"msg": {Type: "string"}},
				Required:   []string{"msg"},
			},
			AsyncSupported: false,
			BatchSupported: true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			Name:        "slow",
			Version:     "1.0.0",
			Description: "Sleeps for a configured delay before returning; used to exercise timeouts.",
			Category:    toolspec.CategoryCustom,
			Provider:    a.ProviderName(),
			InputSchema: toolspec.Schema{
				Type:       "object",
				Properties: map[string]toolspec.PropertySchema{"label": {Type: "string"}},
			},
			AsyncSupported: true,
			BatchSupported: false,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

// Initialize populates the local tool cache. It is idempotent: a
// second call while already ready is a no-op.
func (a *Adapter) Initialize(ctx context.Context) error {
	if a.State() == adapter.StateReady {
		return nil
	}
	a.SetState(adapter.StateInitializing)
	a.CacheTools(a.specs())
	a.SetState(adapter.StateReady)
	log.Info().Str("provider", a.ProviderName()).Msg("adapter initialized")
	return nil
}

// Shutdown transitions to shutdown; subsequent calls are no-ops.
func (a *Adapter) Shutdown(ctx context.Context) error {
	if a.State() == adapter.StateShutdown {
		return nil
	}
	a.SetState(adapter.StateShutdown)
	return nil
}

// DiscoverTools returns the cached tool set narrowed by filter.
func (a *Adapter) DiscoverTools(ctx context.Context, filter adapter.DiscoverFilter) ([]toolspec.ToolSpec, error) {
	return a.CachedTools(filter), nil
}

// ExecuteTool runs the named handler, trapping any error into a
// failed ToolResult rather than propagating it, per the adapter
// contract in spec.md §4.2.
func (a *Adapter) ExecuteTool(ctx context.Context, name string, params map[string]interface{}, execCtx execctx.ToolExecutionContext) (result execctx.ToolResult) {
	start := time.Now()
	executionID := execCtx.ExecutionID
	if executionID == "" {
		executionID = uuid.NewString()
	}

	defer func() {
		if r := recover(); r != nil {
			result = execctx.NewFailedResult(executionID, name, fmt.Sprintf("panic: %v", r), execctx.ErrCodeExecutionError, start)
		}
	}()

	handler, ok := a.handlers[name]
	if !ok {
		return execctx.NewFailedResult(executionID, name, fmt.Sprintf("demo adapter has no tool %q", name), execctx.ErrCodeToolNotFound, start)
	}

	data, err := handler(ctx, params)
	completedAt := time.Now()
	if err != nil {
		res := execctx.NewFailedResult(executionID, name, err.Error(), execctx.ErrCodeExecutionError, start)
		return res
	}

	return execctx.ToolResult{
		ExecutionID: executionID,
		ToolName:    name,
		Status:      execctx.StatusCompleted,
		Data:        data,
		StartedAt:   start,
		CompletedAt: completedAt,
		DurationMs:  completedAt.Sub(start).Milliseconds(),
	}
}

func (a *Adapter) handleEcho(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	msg, _ := params["msg"].(string)
	return map[string]interface{}{"echo": msg}, nil
}

func (a *Adapter) handleSlow(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	label, _ := params["label"].(string)
	select {
	case <-time.After(a.delay):
		return map[string]interface{}{"label": label, "slept_ms": a.delay.Milliseconds()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
