package execctx

import "time"

// Well-known error codes surfaced on a failed ToolResult. These are
// data, not Go errors — they never escape an adapter's ExecuteTool as
// a returned error (spec.md §7: adapter failures are always trapped).
const (
	ErrCodeToolNotFound    = "tool_not_found"
	ErrCodeAdapterNotFound = "adapter_not_found"
	ErrCodeInvalidParams   = "invalid_params"
	ErrCodeExecutionError  = "execution_error"
	ErrCodeTimeout         = "timeout"
	ErrCodeCancelled       = "cancelled"
	ErrCodeDuplicateTool   = "duplicate_tool"
)

// ToolResult is the outcome envelope of one invocation.
type ToolResult struct {
	ExecutionID string `json:"execution_id"`
	ToolName    string `json:"tool_name"`
	Status      Status `json:"status"`

	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`

	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	DurationMs  int64     `json:"duration_ms"`

	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceData map[string]interface{} `json:"trace_data,omitempty"`
}

// IsSuccess reports status==completed with no error set.
func (r ToolResult) IsSuccess() bool {
	return r.Status == StatusCompleted && r.Error == ""
}

// IsFailed reports status in {failed, timeout, cancelled}.
func (r ToolResult) IsFailed() bool {
	return r.Status.Failed()
}

// NewFailedResult builds a failed ToolResult carrying the given error
// and code, stamping CompletedAt and deriving DurationMs from
// startedAt when it is non-zero.
func NewFailedResult(executionID, toolName, errMsg, code string, startedAt time.Time) ToolResult {
	now := timeNow()
	res := ToolResult{
		ExecutionID: executionID,
		ToolName:    toolName,
		Status:      StatusFailed,
		Error:       errMsg,
		ErrorCode:   code,
		CompletedAt: now,
	}
	if code == ErrCodeTimeout {
		res.Status = StatusTimeout
	} else if code == ErrCodeCancelled {
		res.Status = StatusCancelled
	}
	if !startedAt.IsZero() {
		res.StartedAt = startedAt
		res.DurationMs = now.Sub(startedAt).Milliseconds()
	}
	return res
}

// timeNow is indirected so tests can substitute a fixed clock without
// reaching for a global.
var timeNow = time.Now
