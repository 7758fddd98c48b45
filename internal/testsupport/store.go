package testsupport

import (
	"context"
	"testing"

	"manualstudio/internal/config"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/storage"
)

// MustOpenStore opens the job store for a test config and closes it when the
// test ends.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close job store: %v", err)
		}
	})
	return store
}

// MustOpenArtifacts builds the local artifact store for a test config.
func MustOpenArtifacts(t testing.TB, cfg *config.Config) storage.ArtifactStore {
	t.Helper()
	artifacts, err := storage.NewFromConfig(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open artifact store: %v", err)
	}
	return artifacts
}
