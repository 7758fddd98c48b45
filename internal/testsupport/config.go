// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"manualstudio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Storage uses the local backend so tests never touch a real object store,
// and both providers default to mock.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Storage.Backend = config.BackendLocal
	cfg.Storage.LocalDir = filepath.Join(base, "artifacts")
	cfg.Storage.Bucket = "test-bucket"
	cfg.Workflow.WorkerCount = 1
	cfg.Workflow.QueueDepth = 8

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLimits overrides the video limits on the test config.
func WithLimits(maxMinutes, maxSizeMB int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Limits.MaxVideoMinutes = maxMinutes
		cfg.Limits.MaxVideoSizeMB = maxSizeMB
	}
}

// WithQueueDepth overrides the dispatch queue depth on the test config.
func WithQueueDepth(depth int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.QueueDepth = depth
	}
}
