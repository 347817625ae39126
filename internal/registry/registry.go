// Package registry implements the Unified Registry: the single source
// of truth for which tools exist and which adapter executes them. It
// holds no execution state — that belongs to the coordinator package —
// and no persistent state, since it is fully recoverable by
// re-scanning its adapters.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rcourtman/toolmesh-go/internal/adapter"
	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/rcourtman/toolmesh-go/internal/toolspec"
	"github.com/rs/zerolog/log"
)

// Stats are the registry's counters and index sizes, read by the
// manager's metrics loop and the bridge's /tools/stats endpoint. The
// execution counters only grow; TotalTools is reset by Shutdown.
type Stats struct {
	TotalTools           int            `json:"total_tools"`
	TotalExecutions      int64          `json:"total_executions"`
	SuccessfulExecutions int64          `json:"successful_executions"`
	FailedExecutions     int64          `json:"failed_executions"`
	FrameworksCount      int            `json:"frameworks_count"`
	ToolsByProvider      map[string]int `json:"tools_by_provider"`
	ToolsByCategory      map[string]int `json:"tools_by_category"`
}

// catalogEntry is the registry's private view of one tool: the
// (possibly renamed) public spec plus enough to dispatch correctly.
// The adapter's own cache always keeps OriginalName — the registry is
// the only place the conflict-rename prefix is visible, per spec.md:
// "The adapter's own copy keeps the original name; the prefix is
// applied only at the registry level."
type catalogEntry struct {
	spec         toolspec.ToolSpec
	originalName string
	provider     string
}

// Registry is the Unified Registry (component C). It exclusively owns
// its Adapters; no tool escapes its owning adapter by reference — all
// handoffs pass Clone()d ToolSpec values.
type Registry struct {
	mu sync.RWMutex

	adapters        map[string]adapter.Adapter
	adapterOrder    []string // registration order, for serial Initialize
	globalTools     map[string]catalogEntry
	toolsByProvider map[string]map[string]catalogEntry
	toolsByCategory map[string]map[string]catalogEntry

	execMu     sync.RWMutex
	execStatus map[string]execctx.Status

	statsMu sync.Mutex
	stats   Stats

	initialized bool
}

// New constructs an empty, uninitialized Registry.
func New() *Registry {
	return &Registry{
		adapters:        make(map[string]adapter.Adapter),
		globalTools:     make(map[string]catalogEntry),
		toolsByProvider: make(map[string]map[string]catalogEntry),
		toolsByCategory: make(map[string]map[string]catalogEntry),
		execStatus:      make(map[string]execctx.Status),
	}
}

// RegisterAdapter reserves name for a. It must be called before
// Initialize; registering the same name twice returns
// ErrDuplicateAdapter.
func (r *Registry) RegisterAdapter(name string, a adapter.Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[name]; exists {
		return &Error{Op: "register_adapter", Provider: name, Err: ErrDuplicateAdapter}
	}
	r.adapters[name] = a
	r.adapterOrder = append(r.adapterOrder, name)
	r.toolsByProvider[name] = make(map[string]catalogEntry)
	return nil
}

// Initialize brings every registered adapter to ready, serially — so a
// failure is easy to attribute to the adapter that caused it — then
// discovers and indexes each ready adapter's tools. An individual
// adapter failing to initialize is logged and skipped (partial
// success); only when every adapter fails does Initialize return
// ErrAdapterInitFailed. The caller (normally the manager) supplies the
// wall-clock deadline via ctx.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	order := append([]string(nil), r.adapterOrder...)
	r.mu.Unlock()

	readyCount := 0
	for _, name := range order {
		r.mu.RLock()
		a := r.adapters[name]
		r.mu.RUnlock()

		if err := a.Initialize(ctx); err != nil {
			log.Warn().Err(err).Str("provider", name).Msg("adapter failed to initialize, skipping")
			continue
		}
		readyCount++

		tools, err := a.DiscoverTools(ctx, adapter.DiscoverFilter{})
		if err != nil {
			log.Warn().Err(err).Str("provider", name).Msg("adapter failed to discover tools, skipping")
			continue
		}

		for _, spec := range tools {
			if err := r.registerTool(name, spec); err != nil {
				log.Warn().Err(err).Str("provider", name).Str("tool", spec.Name).Msg("failed to register tool")
			}
		}
		log.Info().Str("provider", name).Int("tool_count", len(tools)).Msg("adapter tools registered")
	}

	if len(order) > 0 && readyCount == 0 {
		return &Error{Op: "initialize", Err: ErrAdapterInitFailed}
	}

	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
	return nil
}

// registerTool applies the conflict-rename/duplicate-tool rules and
// inserts spec into all three indices. Caller must not hold r.mu.
func (r *Registry) registerTool(provider string, spec toolspec.ToolSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	original := spec.Name
	finalName := original

	if existing, exists := r.globalTools[original]; exists {
		if existing.provider == provider {
			// Same-provider re-registration of an existing name is a
			// distinct error from the cross-provider conflict rename,
			// per spec.md §9's resolved open question.
			return &Error{Op: "register_tool", Provider: provider, Tool: original, Err: ErrDuplicateTool}
		}
		finalName = provider + "_" + original
	}

	spec.Name = finalName
	entry := catalogEntry{spec: spec, originalName: original, provider: provider}

	r.globalTools[finalName] = entry
	r.toolsByProvider[provider][finalName] = entry
	if r.toolsByCategory[string(spec.Category)] == nil {
		r.toolsByCategory[string(spec.Category)] = make(map[string]catalogEntry)
	}
	r.toolsByCategory[string(spec.Category)][finalName] = entry

	r.statsMu.Lock()
	r.stats.TotalTools++
	r.statsMu.Unlock()

	return nil
}

// DiscoverFilters narrows DiscoverTools beyond the adapter-level
// DiscoverFilter: categories and providers, when both given,
// intersect; all narrowers are AND-composed.
type DiscoverFilters struct {
	Categories []toolspec.Category
	Providers  []string
	Tags       []string
}

// DiscoverTools lists the catalog, optionally narrowed. Results are
// sorted by Name, so the order is stable across calls while the
// catalog is unchanged.
func (r *Registry) DiscoverTools(filters DiscoverFilters) ([]toolspec.ToolSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		return nil, &Error{Op: "discover_tools", Err: ErrNotInitialized}
	}

	catSet := toSet(filters.Categories)
	provSet := toSetStr(filters.Providers)

	out := make([]toolspec.ToolSpec, 0, len(r.globalTools))
	for _, entry := range r.globalTools {
		if len(catSet) > 0 {
			if _, ok := catSet[entry.spec.Category]; !ok {
				continue
			}
		}
		if len(provSet) > 0 {
			if _, ok := provSet[entry.provider]; !ok {
				continue
			}
		}
		if !matchesTags(entry.spec.Tags, filters.Tags) {
			continue
		}
		out = append(out, entry.spec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchesTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func toSet(cats []toolspec.Category) map[toolspec.Category]struct{} {
	if len(cats) == 0 {
		return nil
	}
	out := make(map[toolspec.Category]struct{}, len(cats))
	for _, c := range cats {
		out[c] = struct{}{}
	}
	return out
}

func toSetStr(vals []string) map[string]struct{} {
	if len(vals) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out
}

// GetToolSpec returns the catalog entry's spec by its (possibly
// renamed) global name, or false if absent.
func (r *Registry) GetToolSpec(name string) (toolspec.ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.globalTools[name]
	if !ok {
		return toolspec.ToolSpec{}, false
	}
	return entry.spec.Clone(), true
}

// Providers returns the registered adapter names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.adapterOrder))
	copy(out, r.adapterOrder)
	return out
}

// ExecuteTool dispatches a single execution per spec.md §4.3:
//  1. look up the spec by its catalog name
//  2. look up the owning adapter
//  3. assign an execution id if the context has none, mark running
//  4. validate required params; on failure, synthesize a failed
//     Result without calling the adapter
//  5. delegate to adapter.ExecuteTool using the adapter's ORIGINAL
//     tool name, never the registry's renamed catalog name
//  6. update stats and the status map from the final Result
func (r *Registry) ExecuteTool(ctx context.Context, name string, params map[string]interface{}, execCtx execctx.ToolExecutionContext) execctx.ToolResult {
	r.mu.RLock()
	initialized := r.initialized
	entry, found := r.globalTools[name]
	r.mu.RUnlock()

	execCtx = execCtx.WithDefaults(uuid.NewString)

	if !initialized {
		return execctx.NewFailedResult(execCtx.ExecutionID, name, "registry not initialized", execctx.ErrCodeExecutionError, time.Time{})
	}

	if !found {
		res := execctx.NewFailedResult(execCtx.ExecutionID, name, fmt.Sprintf("tool %q not found", name), execctx.ErrCodeToolNotFound, time.Time{})
		r.recordResult(res)
		return res
	}

	r.mu.RLock()
	a, adapterFound := r.adapters[entry.provider]
	r.mu.RUnlock()

	if !adapterFound {
		res := execctx.NewFailedResult(execCtx.ExecutionID, name, fmt.Sprintf("adapter %q not found", entry.provider), execctx.ErrCodeAdapterNotFound, time.Time{})
		r.recordResult(res)
		return res
	}

	r.setExecStatus(execCtx.ExecutionID, execctx.StatusRunning)

	if !a.ValidateParams(entry.originalName, params) {
		res := execctx.NewFailedResult(execCtx.ExecutionID, name, "required parameters missing", execctx.ErrCodeInvalidParams, time.Time{})
		r.recordResult(res)
		return res
	}

	result := a.ExecuteTool(ctx, entry.originalName, params, execCtx)
	result.ToolName = name // the caller-facing name is the catalog name, not the adapter's internal one
	r.recordResult(result)
	return result
}

func (r *Registry) recordResult(result execctx.ToolResult) {
	r.statsMu.Lock()
	r.stats.TotalExecutions++
	if result.IsSuccess() {
		r.stats.SuccessfulExecutions++
	} else {
		r.stats.FailedExecutions++
	}
	r.statsMu.Unlock()

	r.setExecStatus(result.ExecutionID, result.Status)
}

func (r *Registry) setExecStatus(executionID string, status execctx.Status) {
	if executionID == "" {
		return
	}
	r.execMu.Lock()
	r.execStatus[executionID] = status
	r.execMu.Unlock()
}

// ExecutionStatus returns the last-known status for an execution id,
// if the registry has seen it.
func (r *Registry) ExecutionStatus(executionID string) (execctx.Status, bool) {
	r.execMu.RLock()
	defer r.execMu.RUnlock()
	s, ok := r.execStatus[executionID]
	return s, ok
}

// Stats returns a snapshot of the registry's counters.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	providers := len(r.adapterOrder)
	byProvider := make(map[string]int, len(r.toolsByProvider))
	for p, tools := range r.toolsByProvider {
		byProvider[p] = len(tools)
	}
	byCategory := make(map[string]int, len(r.toolsByCategory))
	for c, tools := range r.toolsByCategory {
		byCategory[c] = len(tools)
	}
	r.mu.RUnlock()

	r.statsMu.Lock()
	snap := r.stats
	r.statsMu.Unlock()

	snap.FrameworksCount = providers
	snap.ToolsByProvider = byProvider
	snap.ToolsByCategory = byCategory
	return snap
}

// Initialized reports whether Initialize has completed successfully.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Shutdown releases every adapter and clears the registry's indices,
// making it eligible for a fresh Initialize — spec.md §8's round-trip
// law: initialize(); shutdown(); initialize() is idempotent, producing
// the same adapter set and the same post-conflict-resolution tool
// names.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	adapters := make([]adapter.Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	r.mu.Unlock()

	for _, a := range adapters {
		if err := a.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Str("provider", a.ProviderName()).Msg("adapter shutdown returned an error")
		}
	}

	r.mu.Lock()
	r.globalTools = make(map[string]catalogEntry)
	r.toolsByCategory = make(map[string]map[string]catalogEntry)
	for name := range r.toolsByProvider {
		r.toolsByProvider[name] = make(map[string]catalogEntry)
	}
	r.initialized = false
	r.mu.Unlock()

	r.statsMu.Lock()
	r.stats.TotalTools = 0
	r.statsMu.Unlock()

	return nil
}
