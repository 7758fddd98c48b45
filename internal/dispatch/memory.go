package dispatch

import (
	"context"
	"sync"

	"manualstudio/internal/services"
)

// InMemoryQueue is a buffered channel queue consumed by in-process workers.
type InMemoryQueue struct {
	mu      sync.Mutex
	tasks   chan Task
	revoked map[string]struct{}
	pending map[string]int
	closed  bool
}

// NewInMemoryQueue creates a queue holding at most depth pending tasks.
func NewInMemoryQueue(depth int) *InMemoryQueue {
	if depth < 1 {
		depth = 1
	}
	return &InMemoryQueue{
		tasks:   make(chan Task, depth),
		revoked: make(map[string]struct{}),
		pending: make(map[string]int),
	}
}

// Enqueue submits a task without blocking. A full queue is an error rather
// than a wait: the caller compensates and reports back pressure upstream.
func (q *InMemoryQueue) Enqueue(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrDispatch, "dispatch", "enqueue", task.Name, err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return services.Wrap(services.ErrDispatch, "dispatch", "enqueue", "queue closed", nil)
	}

	// The pending count and revocation mark change only once the send lands,
	// inside the same critical section a concurrent Dequeue will enter.
	select {
	case q.tasks <- task:
		q.pending[task.JobID]++
		delete(q.revoked, task.JobID)
		return nil
	default:
		return services.Wrap(services.ErrDispatch, "dispatch", "enqueue", "queue full", nil)
	}
}

// Pending reports whether a task for the job is waiting in the queue.
func (q *InMemoryQueue) Pending(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending[jobID] > 0
}

// Revoke marks a job so workers skip its tasks.
func (q *InMemoryQueue) Revoke(jobID string) {
	q.mu.Lock()
	q.revoked[jobID] = struct{}{}
	q.mu.Unlock()
}

// Revoked reports and consumes the revocation mark for a job.
func (q *InMemoryQueue) Revoked(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.revoked[jobID]; ok {
		delete(q.revoked, jobID)
		return true
	}
	return false
}

// Dequeue blocks until a task is available, the queue closes, or the
// context is done. The second return is false when no more tasks will come.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (Task, bool) {
	select {
	case task, ok := <-q.tasks:
		if ok {
			q.mu.Lock()
			if q.pending[task.JobID] > 1 {
				q.pending[task.JobID]--
			} else {
				delete(q.pending, task.JobID)
			}
			q.mu.Unlock()
		}
		return task, ok
	case <-ctx.Done():
		return Task{}, false
	}
}

// Close stops the queue. Pending tasks drain; new enqueues fail.
func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
}

// Depth returns the number of pending tasks.
func (q *InMemoryQueue) Depth() int {
	return len(q.tasks)
}
