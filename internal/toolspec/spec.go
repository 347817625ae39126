package toolspec

import (
	"errors"
	"time"
)

// PropertySchema is the slice of JSON-Schema the core actually inspects
// for one property: its declared type and description. Richer
// validation (formats, nested objects, enums) is an adapter or
// collaborator concern, never the registry's.
type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Schema is the JSON-Schema-shaped object the core reads: only
// Properties and Required are load-bearing.
type Schema struct {
	Type       string                    `json:"type,omitempty"`
	Properties map[string]PropertySchema `json:"properties,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// HasRequired reports whether name is listed as required.
func (s Schema) HasRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// ToolSpec is the catalog entry for one tool. Immutable after
// registration — the registry never mutates a ToolSpec it has
// accepted; conflict-renaming produces a new value instead.
type ToolSpec struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Provider    string   `json:"provider"`

	InputSchema  Schema `json:"input_schema"`
	OutputSchema Schema `json:"output_schema,omitempty"`

	Capabilities []string               `json:"capabilities,omitempty"`
	Tags         []string               `json:"tags,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`

	Timeout        time.Duration `json:"timeout,omitempty"`
	AsyncSupported bool          `json:"async_supported"`
	BatchSupported bool          `json:"batch_supported"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNameRequired is returned when a ToolSpec has an empty Name.
	ErrNameRequired = errors.New("toolspec: name is required")
	// ErrInvalidCategory is returned when Category is not an enum member.
	ErrInvalidCategory = errors.New("toolspec: invalid category")
	// ErrInputSchemaRequired is returned when InputSchema is the zero value.
	ErrInputSchemaRequired = errors.New("toolspec: input_schema is required")
	// ErrProviderRequired is returned when Provider is empty.
	ErrProviderRequired = errors.New("toolspec: provider is required")
)

// Validate checks the invariants from the data model: non-empty name,
// an enum category, a non-null input schema, and a non-empty provider.
// It does not check that Provider names a live adapter — that
// cross-reference is the registry's job, not the value type's.
func (s ToolSpec) Validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}
	if !s.Category.Valid() {
		return ErrInvalidCategory
	}
	if s.InputSchema.Type == "" && s.InputSchema.Properties == nil && s.InputSchema.Required == nil {
		return ErrInputSchemaRequired
	}
	if s.Provider == "" {
		return ErrProviderRequired
	}
	return nil
}

// Clone returns a deep-enough copy safe to hand to a caller outside
// the owning adapter — maps and slices are copied so the recipient
// cannot mutate the adapter's or registry's internal state.
func (s ToolSpec) Clone() ToolSpec {
	out := s
	if s.Capabilities != nil {
		out.Capabilities = append([]string(nil), s.Capabilities...)
	}
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	out.InputSchema = cloneSchema(s.InputSchema)
	out.OutputSchema = cloneSchema(s.OutputSchema)
	return out
}

func cloneSchema(s Schema) Schema {
	out := s
	if s.Properties != nil {
		out.Properties = make(map[string]PropertySchema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v
		}
	}
	if s.Required != nil {
		out.Required = append([]string(nil), s.Required...)
	}
	return out
}
