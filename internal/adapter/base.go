package adapter

import (
	"sync"

	"github.com/rcourtman/toolmesh-go/internal/toolspec"
)

// Base is embedded by concrete adapters to get the state machine,
// tool cache, and required-keys validation for free. It is the Go
// analogue of the original source's BaseToolAdapter: concrete types
// still implement Initialize/Shutdown/DiscoverTools/ExecuteTool
// themselves, but lean on Base for bookkeeping rather than
// reimplementing it.
type Base struct {
	mu            sync.RWMutex
	providerName  string
	supportedCats []toolspec.Category
	state         State
	tools         map[string]toolspec.ToolSpec
}

// NewBase constructs a Base in the uninitialized state for the given
// provider name and static category set.
func NewBase(providerName string, categories []toolspec.Category) *Base {
	return &Base{
		providerName:  providerName,
		supportedCats: append([]toolspec.Category(nil), categories...),
		state:         StateUninitialized,
		tools:         make(map[string]toolspec.ToolSpec),
	}
}

// ProviderName implements part of Adapter.
func (b *Base) ProviderName() string { return b.providerName }

// SupportedCategories implements part of Adapter.
func (b *Base) SupportedCategories() []toolspec.Category {
	return append([]toolspec.Category(nil), b.supportedCats...)
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// SetState transitions the adapter's lifecycle state.
func (b *Base) SetState(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// CacheTools replaces the adapter's local tool cache — called once
// discovery completes during Initialize, per spec.md's registration
// flow ("At adapter initialize, it discovers its tools and caches
// them locally").
func (b *Base) CacheTools(specs []toolspec.ToolSpec) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tools = make(map[string]toolspec.ToolSpec, len(specs))
	for _, s := range specs {
		b.tools[s.Name] = s
	}
}

// GetToolSpec implements part of Adapter by reading the local cache.
func (b *Base) GetToolSpec(name string) (toolspec.ToolSpec, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.tools[name]
	return s.Clone(), ok
}

// CachedTools returns a snapshot of the local cache, optionally
// narrowed by filter, for use by DiscoverTools implementations.
func (b *Base) CachedTools(filter DiscoverFilter) []toolspec.ToolSpec {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]toolspec.ToolSpec, 0, len(b.tools))
	for _, s := range b.tools {
		if filter.Matches(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// ValidateParams implements the best-effort required-keys check from
// spec.md §4.2: it checks presence of every key in
// input_schema.required and nothing more. Adapters needing richer
// validation can shadow this method with their own.
func (b *Base) ValidateParams(name string, params map[string]interface{}) bool {
	spec, ok := b.GetToolSpec(name)
	if !ok {
		return false
	}
	for _, key := range spec.InputSchema.Required {
		if _, present := params[key]; !present {
			return false
		}
	}
	return true
}
