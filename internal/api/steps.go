package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/services"
	"manualstudio/internal/steps"
	"manualstudio/internal/storage"
)

// UpdateSteps appends a manually edited step document as the next ledger
// version. The document is validated first, then uploaded, and only then
// committed to the ledger so a storage failure leaves no partial state.
// Only SUCCEEDED jobs accept edits.
func (s *JobService) UpdateSteps(ctx context.Context, jobID string, stepsJSON []byte, editNote string) (*jobs.StepsVersion, error) {
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != jobs.StatusSucceeded {
		return nil, services.Wrap(services.ErrConflict, "api", "update steps",
			fmt.Sprintf("job is %s, edits require SUCCEEDED", job.Status), nil)
	}
	if err := steps.Validate(stepsJSON); err != nil {
		return nil, err
	}

	version, err := s.store.NextVersion(ctx, jobID)
	if err != nil {
		return nil, err
	}
	key := storage.StepsKey(jobID, version)
	uri, err := s.artifacts.Put(ctx, key, bytes.NewReader(stepsJSON), "application/json")
	if err != nil {
		return nil, services.WithCode(
			services.Wrap(services.ErrStorage, "api", "update steps", "store step document", err),
			services.CodeStorageUpload)
	}

	entry, err := s.store.AppendVersionAt(ctx, jobID, version, uri, string(stepsJSON), jobs.EditSourceManual, editNote)
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	s.recorder.VersionAppended()
	logging.WithContext(services.WithJobID(ctx, jobID), s.logger).Info("step document updated",
		logging.Int("version", entry.Version))
	return entry, nil
}

// GetSteps returns one ledger entry, or the current one when version is
// zero. An unknown job is reported as such, not as a missing version.
func (s *JobService) GetSteps(ctx context.Context, jobID string, version int) (*jobs.StepsVersion, error) {
	if _, err := s.store.GetByID(ctx, jobID); err != nil {
		return nil, err
	}
	entry, err := s.store.GetVersion(ctx, jobID, version)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) && version > 0 {
			return nil, services.WithCode(err, services.CodeStepsNotFound)
		}
		return nil, err
	}
	return entry, nil
}

// ListVersions returns the job's edit history, newest first.
func (s *JobService) ListVersions(ctx context.Context, jobID string) ([]*jobs.StepsVersion, error) {
	if _, err := s.store.GetByID(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListVersions(ctx, jobID)
}
