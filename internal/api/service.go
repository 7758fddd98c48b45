package api

import (
	"log/slog"

	"manualstudio/internal/config"
	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/metrics"
	"manualstudio/internal/storage"
)

// JobService coordinates the job store, artifact store, and dispatch
// queue behind the operations transports expose.
type JobService struct {
	cfg       *config.Config
	store     *jobs.Store
	artifacts storage.ArtifactStore
	queue     dispatch.Queue
	logger    *slog.Logger
	recorder  *metrics.Recorder
}

// NewJobService wires a service against the shared collaborators.
func NewJobService(cfg *config.Config, store *jobs.Store, artifacts storage.ArtifactStore, queue dispatch.Queue, logger *slog.Logger, recorder *metrics.Recorder) *JobService {
	return &JobService{
		cfg:       cfg,
		store:     store,
		artifacts: artifacts,
		queue:     queue,
		logger:    logging.NewComponentLogger(logger, "api"),
		recorder:  recorder,
	}
}
