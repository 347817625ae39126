// Package adapter defines the capability set a framework plug-in must
// implement to expose its tools under the uniform registry contract.
// There is no base class to inherit — any value satisfying Adapter
// works, per spec.md's "re-architect as a capability interface" note.
package adapter

import (
	"context"

	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/rcourtman/toolmesh-go/internal/toolspec"
)

// State is an adapter's lifecycle position.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateBusy          State = "busy"
	StateError         State = "error"
	StateShutdown      State = "shutdown"
)

// DiscoverFilter narrows DiscoverTools. Both fields are optional;
// when both are set they intersect (AND-composed), per spec.md §4.3.
type DiscoverFilter struct {
	Categories []toolspec.Category
	Tags       []string
}

// Matches reports whether spec satisfies the filter.
func (f DiscoverFilter) Matches(spec toolspec.ToolSpec) bool {
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if spec.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Tags) > 0 {
		for _, want := range f.Tags {
			found := false
			for _, got := range spec.Tags {
				if got == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// Adapter is the polymorphic capability every framework plug-in
// implements. Identity is ProviderName; SupportedCategories is
// declared statically by the concrete type.
//
// Contracts (spec.md §4.2):
//   - Initialize enters ready or returns a typed error; repeated
//     successful calls within one lifecycle are no-ops.
//   - Shutdown releases resources and is a no-op after the first call.
//   - DiscoverTools is pure: it never mutates adapter state.
//   - ExecuteTool must never panic or return a Go error for a tool
//     failure — it returns a failed ToolResult instead.
type Adapter interface {
	ProviderName() string
	SupportedCategories() []toolspec.Category

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error

	DiscoverTools(ctx context.Context, filter DiscoverFilter) ([]toolspec.ToolSpec, error)
	GetToolSpec(name string) (toolspec.ToolSpec, bool)
	ValidateParams(name string, params map[string]interface{}) bool

	ExecuteTool(ctx context.Context, name string, params map[string]interface{}, execCtx execctx.ToolExecutionContext) execctx.ToolResult
}

// BatchExecutor is an optional capability: adapters that can run a
// batch of calls more efficiently than the default concurrent-fanout
// helper (ExecuteBatch in this package) implement it directly.
type BatchExecutor interface {
	ExecuteBatch(ctx context.Context, calls []BatchCall) []execctx.ToolResult
}

// BatchCall is one (name, params, context) triple in a batch request.
type BatchCall struct {
	Name    string
	Params  map[string]interface{}
	Context execctx.ToolExecutionContext
}

// ExecuteBatch is the default batch-execute behavior described in
// spec.md §4.2: concurrent invocation of the adapter's single-tool
// path, preserving input order, with per-item (never aggregate)
// failure. Adapters that satisfy BatchExecutor bypass this helper.
func ExecuteBatch(ctx context.Context, a Adapter, calls []BatchCall) []execctx.ToolResult {
	if be, ok := a.(BatchExecutor); ok {
		return be.ExecuteBatch(ctx, calls)
	}

	if len(calls) == 0 {
		return nil
	}

	results := make([]execctx.ToolResult, len(calls))
	done := make(chan struct{}, len(calls))
	for i, call := range calls {
		go func(i int, call BatchCall) {
			defer func() { done <- struct{}{} }()
			results[i] = a.ExecuteTool(ctx, call.Name, call.Params, call.Context)
		}(i, call)
	}
	for range calls {
		<-done
	}
	return results
}
