package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"manualstudio/internal/services"
)

const versionColumns = "id, job_id, version, steps_json, edit_source, edit_note, created_at"

// NextVersion returns the version number the next append will receive.
func (s *Store) NextVersion(ctx context.Context, jobID string) (int, error) {
	ctx = ensureContext(ctx)
	count, err := s.countVersions(ctx, s.db, jobID)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

// AppendVersion adds the next ledger entry for a job and advances
// current_version in the same transaction.
func (s *Store) AppendVersion(ctx context.Context, jobID, stepsJSON, editSource, editNote string) (*StepsVersion, error) {
	return s.AppendVersionAt(ctx, jobID, 0, "", stepsJSON, editSource, editNote)
}

// AppendVersionAt appends a ledger entry at an explicit version number,
// used when the caller has already named an artifact after the version it
// computed. Version 0 means "next". When stepsURI is non-empty the job's
// steps_json_uri moves to it in the same transaction. A concurrent append
// to the same slot trips the UNIQUE(job_id, version) constraint and
// surfaces as Conflict.
func (s *Store) AppendVersionAt(ctx context.Context, jobID string, version int, stepsURI, stepsJSON, editSource, editNote string) (*StepsVersion, error) {
	ctx = ensureContext(ctx)
	var entry *StepsVersion
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = appendVersionTx(ctx, tx, jobID, version, stepsJSON, editSource, editNote)
		if err != nil {
			return err
		}
		if stepsURI != "" {
			_, err = tx.ExecContext(ctx,
				"UPDATE jobs SET steps_json_uri = ? WHERE id = ?", stepsURI, jobID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func appendVersionTx(ctx context.Context, tx *sql.Tx, jobID string, version int, stepsJSON, editSource, editNote string) (*StepsVersion, error) {
	if version <= 0 {
		var count int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM steps_versions WHERE job_id = ?", jobID).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count versions for %s: %w", jobID, err)
		}
		version = count + 1
	}

	entry := &StepsVersion{
		ID:         uuid.NewString(),
		JobID:      jobID,
		Version:    version,
		StepsJSON:  stepsJSON,
		EditSource: editSource,
		EditNote:   editNote,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO steps_versions (id, job_id, version, steps_json, edit_source, edit_note, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.JobID,
		entry.Version,
		entry.StepsJSON,
		entry.EditSource,
		nullableString(entry.EditNote),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, services.Wrap(services.ErrConflict, "jobs", "append version",
				fmt.Sprintf("version %d already exists for job %s", version, jobID), nil)
		}
		if isForeignKeyViolation(err) {
			return nil, services.Wrap(services.ErrNotFound, "jobs", "append version", jobID, nil)
		}
		return nil, fmt.Errorf("insert version %d for %s: %w", version, jobID, err)
	}

	res, err := tx.ExecContext(
		ctx,
		"UPDATE jobs SET current_version = ?, updated_at = ? WHERE id = ?",
		entry.Version,
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("advance current_version for %s: %w", jobID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "append version", jobID, nil)
	}

	return entry, nil
}

// GetVersion fetches one ledger entry. Version 0 means the job's current
// version.
func (s *Store) GetVersion(ctx context.Context, jobID string, version int) (*StepsVersion, error) {
	ctx = ensureContext(ctx)

	var row *sql.Row
	if version <= 0 {
		row = s.db.QueryRowContext(ctx,
			"SELECT "+versionColumns+` FROM steps_versions
             WHERE job_id = ? AND version = (SELECT current_version FROM jobs WHERE id = ?)`,
			jobID, jobID)
	} else {
		row = s.db.QueryRowContext(ctx,
			"SELECT "+versionColumns+" FROM steps_versions WHERE job_id = ? AND version = ?",
			jobID, version)
	}

	entry, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "jobs", "get version",
				fmt.Sprintf("job %s version %d", jobID, version), nil)
		}
		return nil, fmt.Errorf("get version for %s: %w", jobID, err)
	}
	return entry, nil
}

// ListVersions returns a job's ledger entries, newest first.
func (s *Store) ListVersions(ctx context.Context, jobID string) ([]*StepsVersion, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+versionColumns+" FROM steps_versions WHERE job_id = ? ORDER BY version DESC",
		jobID)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", jobID, err)
	}
	defer rows.Close()

	var entries []*StepsVersion
	for rows.Next() {
		entry, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return entries, nil
}

// CountVersions returns the number of ledger entries a job has.
func (s *Store) CountVersions(ctx context.Context, jobID string) (int, error) {
	return s.countVersions(ensureContext(ctx), s.db, jobID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) countVersions(ctx context.Context, q querier, jobID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM steps_versions WHERE job_id = ?", jobID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count versions for %s: %w", jobID, err)
	}
	return count, nil
}

func scanVersion(scanner interface{ Scan(dest ...any) error }) (*StepsVersion, error) {
	var (
		id         string
		jobID      string
		version    int
		stepsJSON  string
		editSource string
		editNote   sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&id, &jobID, &version, &stepsJSON, &editSource, &editNote, &createdRaw); err != nil {
		return nil, err
	}
	entry := &StepsVersion{
		ID:         id,
		JobID:      jobID,
		Version:    version,
		StepsJSON:  stepsJSON,
		EditSource: editSource,
		EditNote:   editNote.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
