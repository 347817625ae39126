package registry

import "errors"

// Sentinel errors for the registry's structural failures. These are
// raised (not trapped) and bubble to the API boundary, unlike
// adapter-level execution failures which always become a failed
// ToolResult instead. Compare with errors.Is, never string matching —
// the same shape as internal monitoring error sentinels in the
// teacher codebase this project descends from.
var (
	ErrNotInitialized    = errors.New("registry: not initialized")
	ErrDuplicateAdapter  = errors.New("registry: adapter already registered")
	ErrDuplicateTool     = errors.New("registry: tool already registered by this provider")
	ErrAdapterInitFailed = errors.New("registry: all adapters failed to initialize")
)

// Error wraps a sentinel with the operation and provider/tool context
// that produced it, following the Op/Err shape used throughout this
// codebase's error types.
type Error struct {
	Op       string
	Provider string
	Tool     string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Tool != "":
		return e.Op + " failed for tool " + e.Tool + ": " + e.Err.Error()
	case e.Provider != "":
		return e.Op + " failed for provider " + e.Provider + ": " + e.Err.Error()
	default:
		return e.Op + " failed: " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
