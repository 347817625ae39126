package bridge

import "net/http"

type executionStatusResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// handleExecutionStatus reports an execution's lifecycle state without
// requiring the full Result — useful for a caller polling a long tool
// call before it completes.
func (b *Bridge) handleExecutionStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, ok := b.manager.Coordinator().GetStatus(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown execution id")
		return
	}
	writeJSON(w, http.StatusOK, executionStatusResponse{ExecutionID: id, Status: string(status)})
}

// handleExecutionResult returns the stored Result for a completed
// execution, reading the coordinator's completed-executions map for
// the given id.
func (b *Bridge) handleExecutionResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, ok := b.manager.Coordinator().GetResult(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no result for that execution id (not found, still running, or expired from retention)")
		return
	}
	writeJSON(w, http.StatusOK, toExecuteResponse(result))
}
