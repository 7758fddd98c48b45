package jobs_test

import (
	"context"
	"errors"
	"testing"

	"manualstudio/internal/jobs"
	"manualstudio/internal/services"
	"manualstudio/internal/testsupport"
)

func TestAppendVersionIsGapless(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := newJob(t, store, jobs.NewJob{})

	for want := 1; want <= 3; want++ {
		entry, err := store.AppendVersion(ctx, job.ID, testsupport.StepsJSON(want), jobs.EditSourceManual, "edit")
		if err != nil {
			t.Fatalf("append %d: %v", want, err)
		}
		if entry.Version != want {
			t.Fatalf("append produced version %d, want %d", entry.Version, want)
		}
	}

	updated, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.CurrentVersion != 3 {
		t.Fatalf("current_version = %d, want 3", updated.CurrentVersion)
	}
}

func TestAppendVersionAtDetectsRace(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := newJob(t, store, jobs.NewJob{})

	if _, err := store.AppendVersionAt(ctx, job.ID, 1, "", testsupport.StepsJSON(1), jobs.EditSourceLLM, ""); err != nil {
		t.Fatalf("first append: %v", err)
	}
	_, err := store.AppendVersionAt(ctx, job.ID, 1, "", testsupport.StepsJSON(1), jobs.EditSourceManual, "")
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("want ErrConflict on duplicate slot, got %v", err)
	}
	if count, _ := store.CountVersions(ctx, job.ID); count != 1 {
		t.Fatalf("ledger count = %d after rejected append", count)
	}
}

func TestAppendVersionAtUpdatesStepsURI(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := newJob(t, store, jobs.NewJob{})

	uri := "s3://test-bucket/jobs/" + job.ID + "/steps_v1.json"
	if _, err := store.AppendVersionAt(ctx, job.ID, 1, uri, testsupport.StepsJSON(1), jobs.EditSourceManual, "note"); err != nil {
		t.Fatalf("append: %v", err)
	}
	updated, _ := store.GetByID(ctx, job.ID)
	if updated.StepsJSONURI != uri {
		t.Fatalf("steps_json_uri = %q, want %q", updated.StepsJSONURI, uri)
	}
}

func TestAppendVersionUnknownJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.AppendVersion(context.Background(), "missing", testsupport.StepsJSON(1), jobs.EditSourceLLM, ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetVersionDefaultsToCurrent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := newJob(t, store, jobs.NewJob{})

	first := testsupport.StepsJSON(1)
	second := testsupport.StepsJSON(2)
	if _, err := store.AppendVersion(ctx, job.ID, first, jobs.EditSourceLLM, ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendVersion(ctx, job.ID, second, jobs.EditSourceManual, "tweak"); err != nil {
		t.Fatalf("append: %v", err)
	}

	current, err := store.GetVersion(ctx, job.ID, 0)
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if current.Version != 2 || current.StepsJSON != second {
		t.Fatalf("unexpected current version: %+v", current)
	}

	v1, err := store.GetVersion(ctx, job.ID, 1)
	if err != nil {
		t.Fatalf("get v1: %v", err)
	}
	if v1.StepsJSON != first || v1.EditSource != jobs.EditSourceLLM {
		t.Fatalf("unexpected v1: %+v", v1)
	}

	if _, err := store.GetVersion(ctx, job.ID, 9); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing version, got %v", err)
	}
}

func TestListVersionsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := newJob(t, store, jobs.NewJob{})

	for i := 0; i < 3; i++ {
		if _, err := store.AppendVersion(ctx, job.ID, testsupport.StepsJSON(1), jobs.EditSourceManual, ""); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := store.ListVersions(ctx, job.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Version != 3-i {
			t.Fatalf("entry %d has version %d", i, entry.Version)
		}
	}
}

func TestNextVersion(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := newJob(t, store, jobs.NewJob{})

	next, err := store.NextVersion(ctx, job.ID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != 1 {
		t.Fatalf("want 1, got %d", next)
	}
	if _, err := store.AppendVersion(ctx, job.ID, testsupport.StepsJSON(1), jobs.EditSourceLLM, ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	next, _ = store.NextVersion(ctx, job.ID)
	if next != 2 {
		t.Fatalf("want 2, got %d", next)
	}
}
