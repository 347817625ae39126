package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/rcourtman/toolmesh-go/internal/manager"
)

// contextOverride is the optional `context` object on an execute
// request, letting a caller thread identity/tracing/priority through
// without constructing a full ToolExecutionContext.
type contextOverride struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	Priority  int    `json:"priority,omitempty"`
}

type executeRequest struct {
	ToolName string                 `json:"tool_name"`
	Params   map[string]interface{} `json:"params"`
	Context  *contextOverride       `json:"context,omitempty"`
	Timeout  *int                   `json:"timeout,omitempty"` // seconds
}

type executeResponse struct {
	Success     bool                   `json:"success"`
	ExecutionID string                 `json:"execution_id"`
	ToolName    string                 `json:"tool_name"`
	Status      execctx.Status         `json:"status"`
	Data        interface{}            `json:"data,omitempty"`
	Error       string                 `json:"error,omitempty"`
	DurationMs  int64                  `json:"duration_ms"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func toExecuteResponse(result execctx.ToolResult) executeResponse {
	return executeResponse{
		Success:     result.IsSuccess(),
		ExecutionID: result.ExecutionID,
		ToolName:    result.ToolName,
		Status:      result.Status,
		Data:        result.Data,
		Error:       result.Error,
		DurationMs:  result.DurationMs,
		Metadata:    result.Metadata,
	}
}

// handleExecute runs a tool to completion and returns its full Result,
// per spec.md §6-7: execution-level failures (tool_not_found,
// invalid_params, adapter failure, timeout, cancellation) are always
// HTTP 200 with success=false. Only framing errors — malformed JSON,
// or the manager not being ready to accept work — use a non-200 code.
func (b *Bridge) handleExecute(w http.ResponseWriter, r *http.Request) {
	if b.manager.State() != manager.StateReady {
		writeError(w, http.StatusServiceUnavailable, "registry manager not ready")
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}

	execCtx := execctx.ToolExecutionContext{}
	priority := execctx.PriorityNormal
	if req.Context != nil {
		execCtx.UserID = req.Context.UserID
		execCtx.SessionID = req.Context.SessionID
		execCtx.TraceID = req.Context.TraceID
		if req.Context.Priority != 0 {
			priority = execctx.Priority(req.Context.Priority)
		}
	}

	timeout := time.Duration(b.manager.ExecutionTimeoutSeconds()) * time.Second
	if req.Timeout != nil && *req.Timeout > 0 {
		timeout = time.Duration(*req.Timeout) * time.Second
	}

	id := b.manager.Coordinator().SubmitExecution(req.ToolName, req.Params, execCtx, priority, timeout)

	result, ok := b.waitForResult(r.Context(), id, timeout)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "execution did not complete before the request was abandoned")
		return
	}

	writeJSON(w, http.StatusOK, toExecuteResponse(result))
}

// waitForResult polls the coordinator's completed map — there is no
// blocking notification channel, by design, since the coordinator
// serves many concurrent callers and a single result often has no
// subscriber at all. budget bounds the wait beyond the execution's own
// timeout, covering dispatch queueing delay.
func (b *Bridge) waitForResult(ctx context.Context, id string, budget time.Duration) (execctx.ToolResult, bool) {
	deadline := time.Now().Add(budget + 5*time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if result, ok := b.manager.Coordinator().GetResult(id); ok {
			return result, true
		}
		select {
		case <-ctx.Done():
			return execctx.ToolResult{}, false
		case <-ticker.C:
			if time.Now().After(deadline) {
				return execctx.ToolResult{}, false
			}
		}
	}
}
