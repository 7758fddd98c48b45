package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"manualstudio/internal/services"
)

const jobColumns = "id, status, stage, progress, title, goal, language, video_duration_sec, video_fps, video_resolution, input_video_uri, audio_uri, transcript_uri, steps_json_uri, slides_uri, frames_prefix_uri, current_version, error_code, error_message, trace_id, created_at, updated_at"

// NewJob carries the caller-supplied fields for job creation.
type NewJob struct {
	// ID is optional. Callers that stage artifacts under the job's key
	// prefix before inserting the row supply their own UUID.
	ID            string
	Title         string
	Goal          string
	Language      string
	InputVideoURI string
	TraceID       string
}

// Create inserts a QUEUED job and returns the stored row.
func (s *Store) Create(ctx context.Context, input NewJob) (*Job, error) {
	ctx = ensureContext(ctx)
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	language := input.Language
	if language == "" {
		language = "ja"
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            id, status, progress, title, goal, language,
            input_video_uri, current_version, trace_id, created_at, updated_at
        ) VALUES (?, ?, 0, ?, ?, ?, ?, 1, ?, ?, ?)`,
		id,
		StatusQueued,
		nullableString(input.Title),
		nullableString(input.Goal),
		language,
		nullableString(input.InputVideoURI),
		nullableString(input.TraceID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job, returning a NotFound error for unknown ids.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "jobs", "get", id, nil)
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// Delete removes a job row and, via cascade, its ledger. Used only by the
// create-path compensation before any worker has seen the job.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// ListQuery shapes a job listing.
type ListQuery struct {
	// Status filters to one status when non-empty.
	Status Status
	// Text is a case-insensitive substring match on title or goal.
	Text string
	// Page is 1-based.
	Page int
	// PageSize is clamped to [1, 100] by the caller.
	PageSize int
	// SortAsc orders by created_at ascending; default is newest first.
	SortAsc bool
}

// List returns one page of jobs plus the total match count.
func (s *Store) List(ctx context.Context, query ListQuery) ([]*Job, int, error) {
	ctx = ensureContext(ctx)

	where := " WHERE 1=1"
	args := make([]any, 0, 4)
	if query.Status != "" {
		where += " AND status = ?"
		args = append(args, query.Status)
	}
	if query.Text != "" {
		pattern := "%" + escapeLike(query.Text) + "%"
		where += ` AND (title LIKE ? ESCAPE '\' OR goal LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	order := " ORDER BY created_at DESC, id DESC"
	if query.SortAsc {
		order = " ORDER BY created_at ASC, id ASC"
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs"+where+order+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate jobs: %w", err)
	}
	return result, total, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id             string
		statusStr      string
		stage          sql.NullString
		progress       int
		title          sql.NullString
		goal           sql.NullString
		language       string
		durationSec    sql.NullFloat64
		fps            sql.NullFloat64
		resolution     sql.NullString
		inputURI       sql.NullString
		audioURI       sql.NullString
		transcriptURI  sql.NullString
		stepsURI       sql.NullString
		slidesURI      sql.NullString
		framesPrefix   sql.NullString
		currentVersion int
		errorCode      sql.NullString
		errorMessage   sql.NullString
		traceID        sql.NullString
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&stage,
		&progress,
		&title,
		&goal,
		&language,
		&durationSec,
		&fps,
		&resolution,
		&inputURI,
		&audioURI,
		&transcriptURI,
		&stepsURI,
		&slidesURI,
		&framesPrefix,
		&currentVersion,
		&errorCode,
		&errorMessage,
		&traceID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		Status:           Status(statusStr),
		Stage:            Stage(stage.String),
		Progress:         progress,
		Title:            title.String,
		Goal:             goal.String,
		Language:         language,
		VideoDurationSec: durationSec.Float64,
		VideoFPS:         fps.Float64,
		VideoResolution:  resolution.String,
		InputVideoURI:    inputURI.String,
		AudioURI:         audioURI.String,
		TranscriptURI:    transcriptURI.String,
		StepsJSONURI:     stepsURI.String,
		SlidesURI:        slidesURI.String,
		FramesPrefixURI:  framesPrefix.String,
		CurrentVersion:   currentVersion,
		ErrorCode:        errorCode.String,
		ErrorMessage:     errorMessage.String,
		TraceID:          traceID.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func escapeLike(value string) string {
	out := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, value[i])
	}
	return string(out)
}
