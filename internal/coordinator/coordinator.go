// Package coordinator implements the Execution Coordinator: it bounds
// how many tool calls run at once, tracks each from submission through
// completion or cancellation, and retains results for a short window.
package coordinator

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Executor is the minimal surface the coordinator needs from the
// registry: run one tool call to completion. The coordinator never
// imports the registry package directly, so it can be tested against
// a stub and reused against anything shaped like a dispatcher.
type Executor interface {
	ExecuteTool(ctx context.Context, name string, params map[string]interface{}, execCtx execctx.ToolExecutionContext) execctx.ToolResult
}

// ErrNotFound is returned by CancelExecution when the id names neither
// a pending nor a running request.
var ErrNotFound = errors.New("coordinator: execution not found")

// Stats are the coordinator's counters, read by the manager's metrics
// loop and the bridge's /tools/stats endpoint.
type Stats struct {
	TotalRequests       int64 `json:"total_requests"`
	CompletedExecutions int64 `json:"completed_executions"`
	FailedExecutions    int64 `json:"failed_executions"`
	CurrentQueueSize    int   `json:"current_queue_size"`
	CurrentRunningCount int   `json:"current_running_count"`
}

// Config configures a Coordinator's resource limits and retention
// policy. Zero values fall back to the documented defaults.
type Config struct {
	MaxConcurrentExecutions int64
	DefaultTimeout          time.Duration
	RetentionWindow         time.Duration
	SweepInterval           time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentExecutions <= 0 {
		c.MaxConcurrentExecutions = 50
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 5 * time.Minute
	}
	if c.RetentionWindow <= 0 {
		c.RetentionWindow = time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	return c
}

type runningTask struct {
	request   *Request
	cancel    context.CancelFunc
	startedAt time.Time
}

type completedEntry struct {
	result   execctx.ToolResult
	storedAt time.Time
}

// Coordinator is the Execution Coordinator (component D).
type Coordinator struct {
	executor Executor
	cfg      Config
	sem      *semaphore.Weighted

	queueMu sync.Mutex
	queue   priorityQueue
	queueCh chan struct{}

	runningMu sync.Mutex
	running   map[string]*runningTask

	completedMu sync.Mutex
	completed   map[string]completedEntry

	statsMu sync.Mutex
	stats   Stats

	seq int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Coordinator bound to executor. Call Start before
// submitting work.
func New(executor Executor, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	return &Coordinator{
		executor: executor,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrentExecutions),
		queueCh:   make(chan struct{}, 1),
		running:   make(map[string]*runningTask),
		completed: make(map[string]completedEntry),
	}
}

// Start launches the dispatcher and retention-sweep loops. ctx bounds
// their lifetime in addition to Shutdown.
func (c *Coordinator) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(2)
	go c.dispatchLoop()
	go c.sweepLoop()
}

// SubmitExecution enqueues a request and returns immediately — it
// never blocks, per spec.md §4.4. The request runs once it reaches the
// head of the priority queue and the semaphore has capacity.
func (c *Coordinator) SubmitExecution(toolName string, params map[string]interface{}, execCtx execctx.ToolExecutionContext, priority execctx.Priority, timeout time.Duration) string {
	executionID := execCtx.ExecutionID
	if executionID == "" {
		executionID = ulid.Make().String()
	}
	if priority == 0 {
		priority = execctx.PriorityNormal
	}
	execCtx.ExecutionID = executionID
	execCtx.Priority = priority

	req := &Request{
		ExecutionID: executionID,
		ToolName:    toolName,
		Params:      params,
		Context:     execCtx,
		Priority:    priority,
		Timeout:     int64(timeout),
		CreatedAt:   atomic.AddInt64(&c.seq, 1),
	}

	c.queueMu.Lock()
	heap.Push(&c.queue, req)
	c.queueMu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalRequests++
	c.statsMu.Unlock()

	c.wake()

	log.Debug().Str("execution_id", executionID).Str("tool", toolName).Int("priority", int(priority)).Msg("execution submitted")
	return executionID
}

func (c *Coordinator) wake() {
	select {
	case c.queueCh <- struct{}{}:
	default:
	}
}

func (c *Coordinator) dispatchLoop() {
	defer c.wg.Done()
	for {
		if c.peekNext() == nil {
			select {
			case <-c.ctx.Done():
				return
			case <-c.queueCh:
				continue
			}
		}

		// Acquire capacity before removing anything from the queue, so a
		// request waiting on a saturated semaphore still counts toward
		// CurrentQueueSize and is still visible to GetStatus as pending.
		if err := c.sem.Acquire(c.ctx, 1); err != nil {
			// Shutting down: drain and cancel whatever is left pending so
			// callers polling status get a terminal answer instead of
			// silence.
			c.drainQueueAsCancelled()
			return
		}

		req := c.popNext()
		if req == nil {
			// The head was cancelled out from under us while we waited
			// for capacity; give the slot back and look again.
			c.sem.Release(1)
			continue
		}

		c.wg.Add(1)
		go c.runTask(req)
	}
}

func (c *Coordinator) peekNext() *Request {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if c.queue.Len() == 0 {
		return nil
	}
	return c.queue[0]
}

func (c *Coordinator) popNext() *Request {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if c.queue.Len() == 0 {
		return nil
	}
	return heap.Pop(&c.queue).(*Request)
}

func (c *Coordinator) drainQueueAsCancelled() {
	for {
		req := c.popNext()
		if req == nil {
			return
		}
		c.completeRequest(req.ExecutionID, req.ToolName, execctx.NewFailedResult(req.ExecutionID, req.ToolName, "coordinator shut down before dispatch", execctx.ErrCodeCancelled, time.Time{}))
	}
}

func (c *Coordinator) runTask(req *Request) {
	defer c.wg.Done()
	defer c.sem.Release(1)

	start := time.Now()
	timeout := time.Duration(req.Timeout)
	if timeout <= 0 {
		timeout = req.Context.Timeout
	}
	if timeout <= 0 {
		timeout = c.cfg.DefaultTimeout
	}

	cancelCtx, cancel := context.WithCancel(c.ctx)
	timeoutCtx, timeoutCancel := context.WithTimeout(cancelCtx, timeout)
	defer timeoutCancel()
	defer cancel()

	c.runningMu.Lock()
	c.running[req.ExecutionID] = &runningTask{request: req, cancel: cancel, startedAt: start}
	c.runningMu.Unlock()

	resultCh := make(chan execctx.ToolResult, 1)
	go func() {
		resultCh <- c.executor.ExecuteTool(timeoutCtx, req.ToolName, req.Params, req.Context)
	}()

	var result execctx.ToolResult
	select {
	case result = <-resultCh:
	case <-timeoutCtx.Done():
		code := execctx.ErrCodeCancelled
		msg := "execution cancelled"
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			code = execctx.ErrCodeTimeout
			msg = fmt.Sprintf("execution exceeded its %s timeout", timeout)
		}
		result = execctx.NewFailedResult(req.ExecutionID, req.ToolName, msg, code, start)
	}

	c.runningMu.Lock()
	delete(c.running, req.ExecutionID)
	c.runningMu.Unlock()

	c.completeRequest(req.ExecutionID, req.ToolName, result)
}

func (c *Coordinator) completeRequest(executionID, toolName string, result execctx.ToolResult) {
	if result.ExecutionID == "" {
		result.ExecutionID = executionID
	}
	if result.ToolName == "" {
		result.ToolName = toolName
	}

	c.completedMu.Lock()
	c.completed[executionID] = completedEntry{result: result, storedAt: time.Now()}
	c.completedMu.Unlock()

	c.statsMu.Lock()
	if result.IsFailed() {
		c.stats.FailedExecutions++
	} else {
		c.stats.CompletedExecutions++
	}
	c.statsMu.Unlock()
}

// CancelExecution cancels a pending or running request. A pending
// request is removed from the queue and immediately recorded as
// cancelled. A running request's context is cancelled; if the adapter
// honors cooperative cancellation the eventual Result carries
// status=cancelled, otherwise the Result is still reported as
// cancelled to the caller even though the adapter's goroutine may run
// to completion internally (spec.md §4.4).
func (c *Coordinator) CancelExecution(executionID string) error {
	c.queueMu.Lock()
	for i, req := range c.queue {
		if req.ExecutionID == executionID {
			heap.Remove(&c.queue, i)
			c.queueMu.Unlock()
			c.completeRequest(executionID, req.ToolName, execctx.NewFailedResult(executionID, req.ToolName, "cancelled while pending", execctx.ErrCodeCancelled, time.Time{}))
			return nil
		}
	}
	c.queueMu.Unlock()

	c.runningMu.Lock()
	task, ok := c.running[executionID]
	c.runningMu.Unlock()
	if !ok {
		return ErrNotFound
	}
	task.cancel()
	return nil
}

// GetStatus reports the lifecycle state of an execution: pending if
// still queued, running if dispatched, or its terminal status if
// completed. The zero value and false are returned if the id is
// unknown (e.g. expired out of the retention window).
func (c *Coordinator) GetStatus(executionID string) (execctx.Status, bool) {
	c.runningMu.Lock()
	_, running := c.running[executionID]
	c.runningMu.Unlock()
	if running {
		return execctx.StatusRunning, true
	}

	c.completedMu.Lock()
	entry, completed := c.completed[executionID]
	c.completedMu.Unlock()
	if completed {
		return entry.result.Status, true
	}

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	for _, req := range c.queue {
		if req.ExecutionID == executionID {
			return execctx.StatusPending, true
		}
	}
	return "", false
}

// GetResult returns the stored result for a completed execution.
func (c *Coordinator) GetResult(executionID string) (execctx.ToolResult, bool) {
	c.completedMu.Lock()
	defer c.completedMu.Unlock()
	entry, ok := c.completed[executionID]
	return entry.result, ok
}

// Stats returns a snapshot of the coordinator's counters.
func (c *Coordinator) Stats() Stats {
	c.queueMu.Lock()
	queueSize := c.queue.Len()
	c.queueMu.Unlock()

	c.runningMu.Lock()
	runningCount := len(c.running)
	c.runningMu.Unlock()

	c.statsMu.Lock()
	snap := c.stats
	c.statsMu.Unlock()

	snap.CurrentQueueSize = queueSize
	snap.CurrentRunningCount = runningCount
	return snap
}

// Shutdown cancels every in-flight and pending request, stops the
// dispatcher and sweep loops, and waits for them to finish or ctx to
// expire, whichever comes first.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) sweepLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sweepExpired()
		}
	}
}

func (c *Coordinator) sweepExpired() {
	cutoff := time.Now().Add(-c.cfg.RetentionWindow)
	c.completedMu.Lock()
	defer c.completedMu.Unlock()
	for id, entry := range c.completed {
		if entry.storedAt.Before(cutoff) {
			delete(c.completed, id)
		}
	}
}
