package api

import (
	"context"
	"fmt"

	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/services"
)

// CancelJob moves a QUEUED or RUNNING job to CANCELED and revokes any
// pending task so workers skip it. A running worker loses its next
// checkpoint instead.
func (s *JobService) CancelJob(ctx context.Context, id string) (*jobs.Job, error) {
	if err := s.store.MarkCanceled(ctx, id); err != nil {
		return nil, err
	}
	s.queue.Revoke(id)
	s.recorder.JobCompleted(string(jobs.StatusCanceled))
	logging.WithContext(services.WithJobID(ctx, id), s.logger).Info("job canceled")
	return s.store.GetByID(ctx, id)
}

// RetryJob requeues a FAILED job. The error fields clear, progress
// resets, and a fresh trace id covers the new run. A job whose input
// artifact reference is gone cannot be retried.
func (s *JobService) RetryJob(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != jobs.StatusFailed {
		return nil, services.Wrap(services.ErrConflict, "api", "retry",
			fmt.Sprintf("job is %s, retry requires FAILED", job.Status), nil)
	}
	if job.InputVideoURI == "" {
		return nil, services.Wrap(services.ErrFailedPrecondition, "api", "retry",
			"job has no input artifact", nil)
	}

	traceID := services.NewTraceID()
	if err := s.store.MarkRetried(ctx, id, traceID); err != nil {
		return nil, err
	}

	ctx = services.WithJobID(services.WithTraceID(ctx, traceID), id)
	task := dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: id, TraceID: traceID}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		if failErr := s.store.MarkFailed(ctx, id, services.CodeQueue, services.Message(err)); failErr != nil {
			logging.WithContext(ctx, s.logger).Error("retry dispatch failure not recorded", logging.Error(failErr))
		}
		return nil, err
	}
	logging.WithContext(ctx, s.logger).Info("job requeued")
	return s.store.GetByID(ctx, id)
}

// RegenerateSlides rebuilds the slide deck from the current step
// document without re-running any upstream stage. Only SUCCEEDED jobs
// with a step document and frames qualify.
func (s *JobService) RegenerateSlides(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != jobs.StatusSucceeded {
		return nil, services.Wrap(services.ErrConflict, "api", "regenerate",
			fmt.Sprintf("job is %s, regeneration requires SUCCEEDED", job.Status), nil)
	}
	if job.StepsJSONURI == "" || job.FramesPrefixURI == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "regenerate",
			"job has no step document or frames to rebuild from", nil)
	}

	traceID := services.NewTraceID()
	if err := s.store.MarkRegenerating(ctx, id, traceID); err != nil {
		return nil, err
	}

	ctx = services.WithJobID(services.WithTraceID(ctx, traceID), id)
	task := dispatch.Task{Name: dispatch.TaskRegenerateSlides, JobID: id, TraceID: traceID}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		if failErr := s.store.MarkFailed(ctx, id, services.CodeQueue, services.Message(err)); failErr != nil {
			logging.WithContext(ctx, s.logger).Error("regenerate dispatch failure not recorded", logging.Error(failErr))
		}
		return nil, err
	}
	logging.WithContext(ctx, s.logger).Info("slide regeneration queued")
	return s.store.GetByID(ctx, id)
}
