package api

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/language"
	"manualstudio/internal/logging"
	"manualstudio/internal/services"
	"manualstudio/internal/storage"
)

// maxBatchSize bounds how many inputs one batch request may carry.
const maxBatchSize = 10

var allowedExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// CreateRequest carries one new conversion job.
type CreateRequest struct {
	Title    string
	Goal     string
	Language string
	// FileName is the original upload name; its extension selects the
	// stored key and content type.
	FileName string
	// Size is the upload size in bytes, checked against the configured
	// limit before any byte is stored.
	Size int64
	Body io.Reader
}

// CreateJob validates the upload, stores the input video, inserts a
// QUEUED job, and dispatches the processing task. When dispatch fails
// the job row is rolled back and the uploaded artifact removed so no
// orphan survives.
func (s *JobService) CreateJob(ctx context.Context, req CreateRequest) (*jobs.Job, error) {
	ext := strings.ToLower(filepath.Ext(req.FileName))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, services.WithCode(
			services.Wrap(services.ErrValidation, "api", "create",
				fmt.Sprintf("unsupported video format %q", ext), nil),
			services.CodeUnsupportedFormat)
	}
	if max := s.cfg.MaxVideoBytes(); max > 0 && req.Size > max {
		return nil, services.WithCode(
			services.Wrap(services.ErrValidation, "api", "create",
				fmt.Sprintf("upload is %d bytes, limit is %d", req.Size, max), nil),
			services.CodeVideoTooLarge)
	}
	if req.Body == nil {
		return nil, services.Wrap(services.ErrValidation, "api", "create", "missing upload body", nil)
	}

	lang := req.Language
	if lang == "" {
		lang = s.cfg.DefaultLanguage
	}
	normalized := language.Normalize(lang)
	if normalized == "" || !language.IsSupported(normalized) {
		return nil, services.Wrap(services.ErrValidation, "api", "create",
			fmt.Sprintf("unsupported language %q", req.Language), nil)
	}

	jobID := uuid.NewString()
	traceID := services.NewTraceID()
	ctx = services.WithJobID(services.WithTraceID(ctx, traceID), jobID)
	logger := logging.WithContext(ctx, s.logger)

	inputKey := storage.InputKey(jobID, ext)
	inputURI, err := s.artifacts.Put(ctx, inputKey, req.Body, contentType)
	if err != nil {
		return nil, services.WithCode(
			services.Wrap(services.ErrStorage, "api", "create", "store input video", err),
			services.CodeStorageUpload)
	}

	job, err := s.store.Create(ctx, jobs.NewJob{
		ID:            jobID,
		Title:         req.Title,
		Goal:          req.Goal,
		Language:      normalized,
		InputVideoURI: inputURI,
		TraceID:       traceID,
	})
	if err != nil {
		s.discard(ctx, inputKey)
		return nil, err
	}

	task := dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: jobID, TraceID: traceID}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		if delErr := s.store.Delete(ctx, jobID); delErr != nil {
			logger.Error("create rollback failed", logging.Error(delErr))
		}
		s.discard(ctx, inputKey)
		return nil, err
	}

	s.recorder.JobCreated()
	logger.Info("job created", logging.String("language", normalized))
	return job, nil
}

// BatchInput is one upload inside a batch request.
type BatchInput struct {
	FileName string
	Size     int64
	Body     io.Reader
}

// BatchRequest creates several jobs in one call. Titles are derived from
// file names, prefixed with TitlePrefix when set.
type BatchRequest struct {
	TitlePrefix string
	Goal        string
	Language    string
	Inputs      []BatchInput
}

// BatchError records why one input was rejected.
type BatchError struct {
	FileName string
	Err      error
}

// BatchResult pairs the created jobs with per-input failures.
type BatchResult struct {
	Jobs   []*jobs.Job
	Errors []BatchError
}

// CreateBatch creates one job per input, accumulating per-file errors
// instead of aborting the whole batch.
func (s *JobService) CreateBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.Inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "api", "create batch", "no inputs", nil)
	}
	if len(req.Inputs) > maxBatchSize {
		return nil, services.Wrap(services.ErrValidation, "api", "create batch",
			fmt.Sprintf("%d inputs exceed the batch limit of %d", len(req.Inputs), maxBatchSize), nil)
	}

	result := &BatchResult{}
	for _, input := range req.Inputs {
		job, err := s.CreateJob(ctx, CreateRequest{
			Title:    batchTitle(req.TitlePrefix, input.FileName),
			Goal:     req.Goal,
			Language: req.Language,
			FileName: input.FileName,
			Size:     input.Size,
			Body:     input.Body,
		})
		if err != nil {
			result.Errors = append(result.Errors, BatchError{FileName: input.FileName, Err: err})
			continue
		}
		result.Jobs = append(result.Jobs, job)
	}
	return result, nil
}

func batchTitle(prefix, fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if prefix == "" {
		return base
	}
	return prefix + " " + base
}

// discard removes a staged artifact during compensation. Failure is
// logged only; the primary error already describes the user-visible
// outcome.
func (s *JobService) discard(ctx context.Context, key string) {
	if err := s.artifacts.Delete(ctx, key); err != nil {
		logging.WithContext(ctx, s.logger).Warn("staged artifact not removed",
			logging.String("key", key), logging.Error(err))
	}
}
