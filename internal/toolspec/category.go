// Package toolspec defines the immutable catalog value types shared by
// every adapter, the registry, and the API bridge.
package toolspec

// Category partitions tools by high-level purpose. The set is closed —
// adapters and callers cannot introduce new values.
type Category string

const (
	CategoryReasoning      Category = "reasoning"
	CategoryThinking       Category = "thinking"
	CategoryKnowledge      Category = "knowledge"
	CategorySearch         Category = "search"
	CategoryAgenticSearch  Category = "agentic_search"
	CategoryChunking       Category = "chunking"
	CategoryCalculator     Category = "calculator"
	CategoryFileManagement Category = "file_management"
	CategoryMCP            Category = "mcp"
	CategoryCustom         Category = "custom"
	CategoryIntegration    Category = "integration"
)

var validCategories = map[Category]struct{}{
	CategoryReasoning:      {},
	CategoryThinking:       {},
	CategoryKnowledge:      {},
	CategorySearch:         {},
	CategoryAgenticSearch:  {},
	CategoryChunking:       {},
	CategoryCalculator:     {},
	CategoryFileManagement: {},
	CategoryMCP:            {},
	CategoryCustom:         {},
	CategoryIntegration:    {},
}

// Valid reports whether c is one of the closed enum members.
func (c Category) Valid() bool {
	_, ok := validCategories[c]
	return ok
}

// AllCategories returns the enum in declaration order, used by the
// bridge's GET /tools/categories endpoint.
func AllCategories() []Category {
	return []Category{
		CategoryReasoning,
		CategoryThinking,
		CategoryKnowledge,
		CategorySearch,
		CategoryAgenticSearch,
		CategoryChunking,
		CategoryCalculator,
		CategoryFileManagement,
		CategoryMCP,
		CategoryCustom,
		CategoryIntegration,
	}
}
