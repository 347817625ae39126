package coordinator

import (
	"container/heap"

	"github.com/rcourtman/toolmesh-go/internal/execctx"
)

// Request is one queued or in-flight execution. ExecutionID is a ULID
// (time-sortable on its own), but heap ordering uses the separate
// CreatedAt sequence below rather than parsing the id, so enqueue order
// is exact even when two requests land in the same tick.
type Request struct {
	ExecutionID string
	ToolName    string
	Params      map[string]interface{}
	Context     execctx.ToolExecutionContext
	Priority    execctx.Priority
	Timeout     int64 // nanoseconds; 0 means "use Context.Timeout, else the coordinator default"
	CreatedAt   int64 // monotonic sequence, assigned at enqueue time
}

// priorityQueue is a binary max-heap on (Priority desc, CreatedAt asc)
// — the real priority queue spec.md §9 calls for, replacing the
// original source's append-only list that declared priority in its
// types but never enforced it.
type priorityQueue []*Request

func (q priorityQueue) Len() int { return len(q) }

func (q priorityQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority > q[j].Priority
	}
	return q[i].CreatedAt < q[j].CreatedAt
}

func (q priorityQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *priorityQueue) Push(x interface{}) {
	*q = append(*q, x.(*Request))
}

func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*priorityQueue)(nil)
