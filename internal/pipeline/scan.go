package pipeline

import (
	"context"
	"time"

	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
)

// RunScanner periodically re-dispatches jobs that are waiting for a
// worker but have no pending task. That covers jobs created by another
// process against the shared database as well as jobs left QUEUED by a
// restart. minAge keeps freshly enqueued jobs out of the scan.
func (w *Worker) RunScanner(ctx context.Context, interval, minAge time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.rescan(ctx, minAge)
		}
	}
}

func (w *Worker) rescan(ctx context.Context, minAge time.Duration) {
	waiting, err := w.store.ListDispatchable(ctx, minAge)
	if err != nil {
		w.logger.Error("dispatch scan failed", logging.Error(err))
		return
	}
	for _, job := range waiting {
		if w.queue.Pending(job.ID) {
			continue
		}
		name := dispatch.TaskProcessVideo
		if job.Stage == jobs.StageGeneratePPTXOnly {
			name = dispatch.TaskRegenerateSlides
		}
		task := dispatch.Task{Name: name, JobID: job.ID, TraceID: job.TraceID}
		if err := w.queue.Enqueue(ctx, task); err != nil {
			// A full queue resolves itself; the next tick retries.
			w.logger.Warn("re-dispatch failed",
				logging.String("job_id", job.ID), logging.Error(err))
			return
		}
		w.logger.Info("job re-dispatched",
			logging.String("job_id", job.ID), logging.String("task", name))
	}
}
