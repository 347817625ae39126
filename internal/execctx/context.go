package execctx

import "time"

// ToolExecutionContext is the per-invocation envelope a caller may
// supply, or that the registry synthesizes when absent.
type ToolExecutionContext struct {
	ExecutionID string `json:"execution_id"`
	UserID      string `json:"user_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`

	Timeout    time.Duration `json:"timeout,omitempty"`
	Priority   Priority      `json:"priority,omitempty"`
	RetryCount int           `json:"retry_count,omitempty"`
	MaxRetries int           `json:"max_retries,omitempty"`

	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// WithDefaults fills in an execution_id and normal priority when the
// caller left them zero, returning a copy so the caller's value is
// never mutated under its feet.
func (c ToolExecutionContext) WithDefaults(newID func() string) ToolExecutionContext {
	out := c
	if out.ExecutionID == "" {
		out.ExecutionID = newID()
	}
	if out.Priority == 0 {
		out.Priority = PriorityNormal
	}
	return out
}
