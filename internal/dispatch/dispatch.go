// Package dispatch is the task hand-off port between the API layer and the
// pipeline workers. Enqueue and Revoke are deliberately narrow so the
// in-process queue can later be swapped for a broker without touching the
// job service.
package dispatch

import "context"

// Task names routed through the queue.
const (
	TaskProcessVideo     = "process_video"
	TaskRegenerateSlides = "regenerate_slides"
)

// Task is one unit of pipeline work tied to a job.
type Task struct {
	Name  string
	JobID string
	// TraceID correlates worker log lines with the submitting request.
	TraceID string
}

// Queue accepts pipeline tasks for asynchronous execution.
type Queue interface {
	// Enqueue submits a task. It returns an error when the queue is full
	// or closed; the caller decides whether to compensate.
	Enqueue(ctx context.Context, task Task) error
	// Revoke marks a job's pending tasks as canceled. Workers consult the
	// revocation set before starting work. Revoking an unknown job is a
	// no-op.
	Revoke(jobID string)
}
