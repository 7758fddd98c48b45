package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"manualstudio/internal/services"
)

// Transitions are compare-and-swap updates: each UPDATE is guarded on the
// set of statuses it may leave, and zero affected rows is classified into
// NotFound or Conflict by re-reading the row. A Conflict error names the
// status that won the race.

func (s *Store) classifyCASFailure(ctx context.Context, id string, operation string) error {
	var status string
	err := s.db.QueryRowContext(ctx, "SELECT status FROM jobs WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return services.Wrap(services.ErrNotFound, "jobs", operation, id, nil)
	}
	if err != nil {
		return fmt.Errorf("%s job %s: %w", operation, id, err)
	}
	return services.Wrap(services.ErrConflict, "jobs", operation,
		fmt.Sprintf("job %s is %s", id, status), nil)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// MarkRunning records a progress report. Allowed from QUEUED (first report
// flips the job to RUNNING) and RUNNING. A report against a terminal job
// returns Conflict; callers handling worker reports treat that as stale and
// drop it.
func (s *Store) MarkRunning(ctx context.Context, id string, stage Stage, progress int) error {
	ctx = ensureContext(ctx)
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, stage = ?, progress = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusRunning,
		nullableString(string(stage)),
		progress,
		now(),
		id,
		StatusQueued,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark running %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return s.classifyCASFailure(ctx, id, "progress")
	}
	return nil
}

// MarkSucceeded completes a first run: RUNNING becomes SUCCEEDED, artifact
// refs and probed video metadata land on the row, and the generated step
// document is appended to the ledger, all in one transaction. A job canceled
// mid-flight loses the race and stays CANCELED.
func (s *Store) MarkSucceeded(ctx context.Context, id string, outputs Outputs, meta VideoMeta, stepsJSON string) (*StepsVersion, error) {
	ctx = ensureContext(ctx)
	var version *StepsVersion
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, stage = NULL, progress = 100,
                audio_uri = ?, transcript_uri = ?, steps_json_uri = ?,
                slides_uri = ?, frames_prefix_uri = ?,
                video_duration_sec = ?, video_fps = ?, video_resolution = ?,
                error_code = NULL, error_message = NULL, updated_at = ?
             WHERE id = ? AND status = ?`,
			StatusSucceeded,
			nullableString(outputs.AudioURI),
			nullableString(outputs.TranscriptURI),
			nullableString(outputs.StepsJSONURI),
			nullableString(outputs.SlidesURI),
			nullableString(outputs.FramesPrefixURI),
			meta.DurationSec,
			meta.FPS,
			nullableString(meta.Resolution),
			now(),
			id,
			StatusRunning,
		)
		if err != nil {
			return fmt.Errorf("mark succeeded %s: %w", id, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return s.classifyCASFailure(ctx, id, "succeed")
		}
		version, err = appendVersionTx(ctx, tx, id, 0, stepsJSON, EditSourceLLM, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// MarkFailed records a failure with its categorical code. Allowed from
// QUEUED and RUNNING.
func (s *Store) MarkFailed(ctx context.Context, id, code, message string) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, stage = NULL, error_code = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusFailed,
		code,
		message,
		now(),
		id,
		StatusQueued,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return s.classifyCASFailure(ctx, id, "fail")
	}
	return nil
}

// MarkCanceled stops a pending or in-flight job.
func (s *Store) MarkCanceled(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, stage = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusCanceled,
		now(),
		id,
		StatusQueued,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark canceled %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return s.classifyCASFailure(ctx, id, "cancel")
	}
	return nil
}

// MarkRetried requeues a failed job with a fresh trace id, clearing error
// state and progress.
func (s *Store) MarkRetried(ctx context.Context, id, traceID string) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, stage = NULL, progress = 0,
            error_code = NULL, error_message = NULL, trace_id = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusQueued,
		nullableString(traceID),
		now(),
		id,
		StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("mark retried %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return s.classifyCASFailure(ctx, id, "retry")
	}
	return nil
}

// MarkRegenerating moves a succeeded job back to RUNNING for a slides-only
// rebuild.
func (s *Store) MarkRegenerating(ctx context.Context, id, traceID string) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, stage = ?, progress = 0, trace_id = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusRunning,
		StageGeneratePPTXOnly,
		nullableString(traceID),
		now(),
		id,
		StatusSucceeded,
	)
	if err != nil {
		return fmt.Errorf("mark regenerating %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return s.classifyCASFailure(ctx, id, "regenerate")
	}
	return nil
}

// MarkRegenerated completes a slides-only rebuild. Only the slides ref
// changes; the ledger is untouched because the step document did not.
func (s *Store) MarkRegenerated(ctx context.Context, id, slidesURI string) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, stage = NULL, progress = 100, slides_uri = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusSucceeded,
		nullableString(slidesURI),
		now(),
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark regenerated %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return s.classifyCASFailure(ctx, id, "regenerate")
	}
	return nil
}
