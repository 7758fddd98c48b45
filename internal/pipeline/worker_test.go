package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"manualstudio/internal/config"
	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/services"
	"manualstudio/internal/steps"
	"manualstudio/internal/storage"
	"manualstudio/internal/testsupport"
)

type fixture struct {
	cfg       *config.Config
	store     *jobs.Store
	artifacts storage.ArtifactStore
	queue     *dispatch.InMemoryQueue
	worker    *Worker
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	artifacts := testsupport.MustOpenArtifacts(t, cfg)
	queue := dispatch.NewInMemoryQueue(cfg.Workflow.QueueDepth)
	providers := Providers{
		Media:       NewMockMedia(60),
		Transcriber: NewMockTranscriber(),
		Generator:   NewMockGenerator(),
		Renderer:    NewMockRenderer(),
	}
	worker := NewWorker(cfg, store, artifacts, queue, providers, logging.NewNop(), nil)
	return &fixture{cfg: cfg, store: store, artifacts: artifacts, queue: queue, worker: worker}
}

// seedJob uploads a fake video and creates a queued job referencing it.
func (f *fixture) seedJob(t *testing.T, title string) *jobs.Job {
	t.Helper()
	ctx := context.Background()
	uri, err := f.artifacts.Put(ctx, "uploads/input.mp4", bytes.NewReader([]byte("fake video")), "video/mp4")
	if err != nil {
		t.Fatalf("put input: %v", err)
	}
	job, err := f.store.Create(ctx, jobs.NewJob{
		Title:         title,
		Language:      "ja",
		InputVideoURI: uri,
		TraceID:       services.NewTraceID(),
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestProcessVideoEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.seedJob(t, "デモ動画")

	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID, TraceID: job.TraceID})

	final, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != jobs.StatusSucceeded {
		t.Fatalf("job ended %s (%s: %s)", final.Status, final.ErrorCode, final.ErrorMessage)
	}
	if final.Progress != 100 || final.Stage != "" {
		t.Fatalf("unexpected final progress/stage: %d %q", final.Progress, final.Stage)
	}
	for name, uri := range map[string]string{
		"audio":      final.AudioURI,
		"transcript": final.TranscriptURI,
		"steps":      final.StepsJSONURI,
		"slides":     final.SlidesURI,
		"frames":     final.FramesPrefixURI,
	} {
		if uri == "" {
			t.Errorf("%s output missing", name)
		}
	}
	if final.VideoDurationSec != 60 || final.VideoResolution != "1920x1080" {
		t.Fatalf("video metadata not recorded: %f %s", final.VideoDurationSec, final.VideoResolution)
	}

	// The stored document is the ledger's version 1 and validates.
	entry, err := f.store.GetVersion(ctx, job.ID, 0)
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	if entry.Version != 1 || entry.EditSource != jobs.EditSourceLLM {
		t.Fatalf("unexpected ledger entry: v%d %s", entry.Version, entry.EditSource)
	}
	if err := steps.Validate([]byte(entry.StepsJSON)); err != nil {
		t.Fatalf("generated document invalid: %v", err)
	}

	// Frame artifacts landed under the frames prefix and steps_v1 exists.
	objects, err := f.artifacts.List(ctx, storage.FramesPrefix(job.ID))
	if err != nil {
		t.Fatalf("list frames: %v", err)
	}
	if len(objects) == 0 {
		t.Fatal("no frames stored")
	}
	exists, err := f.artifacts.Exists(ctx, storage.StepsKey(job.ID, 1))
	if err != nil || !exists {
		t.Fatalf("steps artifact missing (exists=%v, err=%v)", exists, err)
	}
}

func TestProcessVideoMissingInputFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.store.Create(ctx, jobs.NewJob{InputVideoURI: "s3://test-bucket/jobs/ghost/input.mp4"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID})

	final, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != jobs.StatusFailed {
		t.Fatalf("want FAILED, got %s", final.Status)
	}
	if final.ErrorCode != services.CodeInputMissing {
		t.Fatalf("want %s, got %s", services.CodeInputMissing, final.ErrorCode)
	}
}

func TestProcessVideoTooLongFails(t *testing.T) {
	f := newFixture(t, testsupport.WithLimits(1, 1024))
	ctx := context.Background()

	// Mock reports 120s against the 1-minute limit.
	f.worker.providers.Media = NewMockMedia(120)
	job := f.seedJob(t, "")

	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID})

	final, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != jobs.StatusFailed || final.ErrorCode != services.CodeVideoTooLong {
		t.Fatalf("want FAILED/%s, got %s/%s", services.CodeVideoTooLong, final.Status, final.ErrorCode)
	}
}

func TestRevokedTaskIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.seedJob(t, "")
	if err := f.store.MarkCanceled(ctx, job.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.queue.Revoke(job.ID)

	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID})

	final, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != jobs.StatusCanceled {
		t.Fatalf("canceled job mutated: %s", final.Status)
	}
}

// A cancel that lands between checkpoints makes the next checkpoint lose
// its compare-and-set. The worker must abandon the run without flipping
// the job to FAILED.
func TestCancelMidRunAbandonsWithoutFailing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.seedJob(t, "")
	f.worker.providers.Transcriber = cancelingTranscriber{store: f.store, jobID: job.ID}

	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID})

	final, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != jobs.StatusCanceled {
		t.Fatalf("want CANCELED, got %s (%s)", final.Status, final.ErrorCode)
	}
	if final.ErrorCode != "" {
		t.Fatalf("abandoned run recorded an error: %s", final.ErrorCode)
	}
}

type cancelingTranscriber struct {
	store *jobs.Store
	jobID string
}

func (c cancelingTranscriber) Transcribe(ctx context.Context, audioPath, language string) (Transcript, error) {
	if err := c.store.MarkCanceled(ctx, c.jobID); err != nil {
		return Transcript{}, err
	}
	return NewMockTranscriber().Transcribe(ctx, audioPath, language)
}

func TestRunDrainsQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.seedJob(t, "キュー経由")
	if err := f.queue.Enqueue(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	f.queue.Close()
	f.worker.Run(ctx)

	final, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != jobs.StatusSucceeded {
		t.Fatalf("job ended %s (%s)", final.Status, final.ErrorMessage)
	}
}

func TestScannerRedispatchesWaitingJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.seedJob(t, "")
	f.worker.rescan(ctx, 0)
	if f.queue.Depth() != 1 {
		t.Fatalf("queue depth = %d, want 1", f.queue.Depth())
	}
	// A pending task is not duplicated on the next pass.
	f.worker.rescan(ctx, 0)
	if f.queue.Depth() != 1 {
		t.Fatalf("queue depth after second scan = %d, want 1", f.queue.Depth())
	}
	task, ok := f.queue.Dequeue(ctx)
	if !ok || task.Name != dispatch.TaskProcessVideo || task.JobID != job.ID {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestScannerRedispatchesRegeneration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.seedJob(t, "デモ")
	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID})
	if err := f.store.MarkRegenerating(ctx, job.ID, services.NewTraceID()); err != nil {
		t.Fatalf("mark regenerating: %v", err)
	}

	f.worker.rescan(ctx, 0)
	task, ok := f.queue.Dequeue(ctx)
	if !ok || task.Name != dispatch.TaskRegenerateSlides || task.JobID != job.ID {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestRegenerateSlides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.seedJob(t, "デモ動画")
	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskProcessVideo, JobID: job.ID})
	mid, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mid.Status != jobs.StatusSucceeded {
		t.Fatalf("first run ended %s (%s)", mid.Status, mid.ErrorMessage)
	}
	firstSlides := readArtifact(t, f.artifacts, storage.SlidesKey(job.ID))

	// A manual edit becomes version 2, then the deck is rebuilt from it.
	edited := strings.Replace(testsupport.StepsJSON(2), "テストマニュアル", "改訂版マニュアル", 1)
	if _, err := f.store.AppendVersion(ctx, job.ID, edited, jobs.EditSourceManual, "retitle"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := f.store.MarkRegenerating(ctx, job.ID, services.NewTraceID()); err != nil {
		t.Fatalf("mark regenerating: %v", err)
	}
	f.worker.handle(ctx, dispatch.Task{Name: dispatch.TaskRegenerateSlides, JobID: job.ID})

	final, err := f.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != jobs.StatusSucceeded {
		t.Fatalf("regeneration ended %s (%s)", final.Status, final.ErrorMessage)
	}
	secondSlides := readArtifact(t, f.artifacts, storage.SlidesKey(job.ID))
	if bytes.Equal(firstSlides, secondSlides) {
		t.Fatal("slides not rebuilt from the edited document")
	}
	if !bytes.Contains(secondSlides, []byte("改訂版マニュアル")) {
		t.Fatalf("rebuilt slides ignore the edited title: %s", secondSlides)
	}
	// Regeneration never appends to the ledger.
	count, err := f.store.CountVersions(ctx, job.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("ledger count = %d, want 2", count)
	}
}

func readArtifact(t *testing.T, artifacts storage.ArtifactStore, key string) []byte {
	t.Helper()
	body, err := artifacts.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return data
}

func TestStageProgressCheckpoints(t *testing.T) {
	cases := map[jobs.Stage]int{
		jobs.StageIngest:           5,
		jobs.StageExtractAudio:     15,
		jobs.StageTranscribe:       35,
		jobs.StageDetectScenes:     50,
		jobs.StageExtractFrames:    65,
		jobs.StageGenerateSteps:    80,
		jobs.StageGeneratePPTX:     95,
		jobs.StageGeneratePPTXOnly: 95,
		jobs.StageFinalize:         100,
	}
	for stage, want := range cases {
		if got := Progress(stage); got != want {
			t.Errorf("Progress(%s) = %d, want %d", stage, got, want)
		}
	}
}
