// Package queue provides a FIFO, single-consumer task executor with per-task
// status tracking. It exists to serialize access to the generation capability:
// the model endpoint is treated as a scarce, stateful remote resource that is
// not safe for unmanaged parallel access, so no two tasks ever run concurrently
// within one queue instance.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/softgrove/vellum/internal/logging"
	"github.com/softgrove/vellum/pkg/domain"
)

// TaskFunc is the injected callable executed for each task. The returned value
// becomes the task's result; a non-nil error marks the task Failed without
// aborting the drain.
type TaskFunc func(ctx context.Context, payload any) (any, error)

type task struct {
	id      string
	fn      TaskFunc
	payload any
}

// Mode is the queue-level state: Idle between drains, Draining inside RunAll.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeDraining Mode = "draining"
)

// Queue is a FIFO executor for generation tasks. All methods are safe for
// concurrent use; execution itself is strictly sequential.
type Queue struct {
	mu      sync.Mutex
	pending []*task
	results map[string]*domain.TaskResult
	nextID  int
	mode    Mode
	stopped bool

	logger *slog.Logger
}

// Option configures the Queue.
type Option func(*Queue)

// WithLogger configures a logger for task lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// New creates an empty, idle queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		results: make(map[string]*domain.TaskResult),
		mode:    ModeIdle,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a task and returns its queue-unique id immediately.
func (q *Queue) Enqueue(fn TaskFunc, payload any) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	id := fmt.Sprintf("task-%d", q.nextID)

	q.pending = append(q.pending, &task{id: id, fn: fn, payload: payload})
	q.results[id] = &domain.TaskResult{ID: id, Status: domain.TaskPending}

	q.logger.Debug("task enqueued", "task_id", id)
	return id
}

// RunAll drains the queue in FIFO order, one task at a time. A task failure is
// captured on its result and never aborts the drain. Returns domain.ErrUsage
// if the queue is already draining. Context cancellation halts the drain
// between tasks; already-pending tasks remain queued.
func (q *Queue) RunAll(ctx context.Context) error {
	q.mu.Lock()
	if q.mode == ModeDraining {
		q.mu.Unlock()
		return fmt.Errorf("%w: queue is already draining", domain.ErrUsage)
	}
	q.mode = ModeDraining
	q.stopped = false
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.mode = ModeIdle
		q.mu.Unlock()
	}()

	for {
		q.mu.Lock()
		if q.stopped || len(q.pending) == 0 {
			q.mu.Unlock()
			return nil
		}
		if err := ctx.Err(); err != nil {
			q.mu.Unlock()
			return err
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		result := q.results[next.id]
		now := time.Now()
		result.Status = domain.TaskRunning
		result.StartedAt = &now
		q.mu.Unlock()

		q.execute(ctx, next, result)
	}
}

// execute runs one task and records its single outcome.
func (q *Queue) execute(ctx context.Context, t *task, result *domain.TaskResult) {
	out, err := t.fn(ctx, t.payload)

	q.mu.Lock()
	defer q.mu.Unlock()

	ended := time.Now()
	result.EndedAt = &ended

	if err != nil {
		result.Status = domain.TaskFailed
		result.Error = err.Error()
		q.logger.Error("task failed", "task_id", t.id, "err", err)
	} else {
		result.Status = domain.TaskCompleted
		result.Result = out
		q.logger.Debug("task completed", "task_id", t.id)
	}
	observeTask(result.Status, ended.Sub(*result.StartedAt))
}

// Cancel removes a Pending task and marks it Cancelled, reporting true.
// Cancelling a Running or terminal task is a documented no-op reporting false:
// cancellation cannot interrupt in-flight work.
func (q *Queue) Cancel(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	result, ok := q.results[taskID]
	if !ok || result.Status != domain.TaskPending {
		return false
	}

	for i, t := range q.pending {
		if t.id == taskID {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	result.Status = domain.TaskCancelled
	q.logger.Debug("task cancelled", "task_id", taskID)
	return true
}

// Result returns the tracked outcome for a task id.
func (q *Queue) Result(taskID string) (domain.TaskResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	result, ok := q.results[taskID]
	if !ok {
		return domain.TaskResult{}, false
	}
	return *result, true
}

// Clear drops all Pending tasks without marking them. Used for hard resets;
// distinct from Cancel, which records the Cancelled status.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.pending {
		delete(q.results, t.id)
	}
	q.pending = nil
	q.logger.Debug("queue cleared")
}

// Stop signals RunAll to halt after the currently-running task completes.
// Pending tasks remain queued for a future RunAll.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// CurrentMode returns Idle or Draining.
func (q *Queue) CurrentMode() Mode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mode
}
