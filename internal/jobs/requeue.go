package jobs

import (
	"context"
	"fmt"
	"time"
)

// ListDispatchable returns jobs that are waiting for a worker: QUEUED
// jobs and regeneration requests that never reached their first
// checkpoint. Only rows untouched for at least age are returned, so a
// job a worker just picked up is not handed out twice.
func (s *Store) ListDispatchable(ctx context.Context, age time.Duration) ([]*Job, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+` FROM jobs
         WHERE status = ? OR (status = ? AND stage = ? AND progress = 0)
         ORDER BY created_at ASC`,
		StatusQueued, StatusRunning, StageGeneratePPTXOnly)
	if err != nil {
		return nil, fmt.Errorf("list dispatchable jobs: %w", err)
	}
	defer rows.Close()

	cutoff := time.Now().UTC().Add(-age)
	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if job.UpdatedAt.After(cutoff) {
			continue
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatchable jobs: %w", err)
	}
	return result, nil
}
