package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"manualstudio/internal/config"
	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/metrics"
	"manualstudio/internal/services"
	"manualstudio/internal/steps"
	"manualstudio/internal/storage"
)

// Worker consumes dispatch tasks and runs the pipeline stages.
type Worker struct {
	cfg       *config.Config
	store     *jobs.Store
	artifacts storage.ArtifactStore
	queue     *dispatch.InMemoryQueue
	providers Providers
	logger    *slog.Logger
	recorder  *metrics.Recorder
}

// NewWorker wires a worker against the shared stores and queue.
func NewWorker(cfg *config.Config, store *jobs.Store, artifacts storage.ArtifactStore, queue *dispatch.InMemoryQueue, providers Providers, logger *slog.Logger, recorder *metrics.Recorder) *Worker {
	return &Worker{
		cfg:       cfg,
		store:     store,
		artifacts: artifacts,
		queue:     queue,
		providers: providers,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		recorder:  recorder,
	}
}

// Run consumes tasks until the context is canceled or the queue closes.
// Start one goroutine per configured worker.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, ok := w.queue.Dequeue(ctx)
		if !ok {
			return
		}
		w.recorder.SetQueueDepth(w.queue.Depth())
		w.handle(ctx, task)
	}
}

// RunPool starts the configured number of workers and blocks until all
// stop.
func (w *Worker) RunPool(ctx context.Context) {
	count := w.cfg.Workflow.WorkerCount
	if count < 1 {
		count = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) handle(ctx context.Context, task dispatch.Task) {
	ctx = services.WithJobID(ctx, task.JobID)
	if task.TraceID != "" {
		ctx = services.WithTraceID(ctx, task.TraceID)
	}
	logger := logging.WithContext(ctx, w.logger)

	if w.queue.Revoked(task.JobID) {
		logger.Info("skipping revoked task", logging.String("task", task.Name))
		return
	}

	var err error
	switch task.Name {
	case dispatch.TaskProcessVideo:
		err = w.processVideo(ctx, task.JobID)
	case dispatch.TaskRegenerateSlides:
		err = w.regenerateSlides(ctx, task.JobID)
	default:
		logger.Warn("unknown task", logging.String("task", task.Name))
		return
	}

	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			// The job changed state underneath us, typically a cancel.
			// The row already reflects the winner.
			logger.Info("run abandoned after state change", logging.Error(err))
			return
		}
		logger.Error("task failed", logging.String("task", task.Name), logging.Error(err))
		code := services.Code(err)
		if failErr := w.store.MarkFailed(ctx, task.JobID, code, services.Message(err)); failErr != nil {
			if !errors.Is(failErr, services.ErrConflict) {
				logger.Error("failure not recorded", logging.Error(failErr))
			}
			return
		}
		w.recorder.JobCompleted(string(jobs.StatusFailed))
	}
}

// checkpoint reports a stage start. A Conflict from the CAS transition
// means the job is no longer ours; the caller stops work.
func (w *Worker) checkpoint(ctx context.Context, jobID string, stage jobs.Stage) error {
	return w.store.MarkRunning(ctx, jobID, stage, Progress(stage))
}

func (w *Worker) processVideo(ctx context.Context, jobID string) error {
	job, err := w.store.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, w.logger)
	started := time.Now()

	workDir := filepath.Join(w.cfg.Paths.WorkDir, jobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "workdir", workDir, err)
	}
	defer os.RemoveAll(workDir)

	// INGEST: fetch the input artifact into the work directory.
	if err := w.checkpoint(ctx, jobID, jobs.StageIngest); err != nil {
		return err
	}
	stageStart := time.Now()
	if job.InputVideoURI == "" {
		return services.WithCode(
			services.Wrap(services.ErrFailedPrecondition, "pipeline", "ingest", "job has no input artifact", nil),
			services.CodeInputMissing)
	}
	inputKey := storage.KeyFromURI(job.InputVideoURI)
	videoPath := filepath.Join(workDir, filepath.Base(inputKey))
	if err := w.download(ctx, inputKey, videoPath); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return services.WithCode(
				services.Wrap(services.ErrFailedPrecondition, "pipeline", "ingest", "input artifact missing", err),
				services.CodeInputMissing)
		}
		return err
	}

	meta, err := w.providers.Media.Probe(ctx, videoPath)
	if err != nil {
		return err
	}
	if max := w.cfg.MaxVideoSeconds(); max > 0 && meta.DurationSec > float64(max) {
		return services.WithCode(
			services.Wrap(services.ErrValidation, "pipeline", "ingest",
				fmt.Sprintf("video runs %.0fs, limit is %ds", meta.DurationSec, max), nil),
			services.CodeVideoTooLong)
	}
	w.recorder.ObserveStage(string(jobs.StageIngest), time.Since(stageStart))

	// EXTRACT_AUDIO
	if err := w.checkpoint(ctx, jobID, jobs.StageExtractAudio); err != nil {
		return err
	}
	stageStart = time.Now()
	audioPath := filepath.Join(workDir, "audio.wav")
	if err := w.providers.Media.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return err
	}
	audioURI, err := w.upload(ctx, storage.AudioKey(jobID), audioPath, "audio/wav")
	if err != nil {
		return err
	}
	w.recorder.ObserveStage(string(jobs.StageExtractAudio), time.Since(stageStart))

	// TRANSCRIBE
	if err := w.checkpoint(ctx, jobID, jobs.StageTranscribe); err != nil {
		return err
	}
	stageStart = time.Now()
	transcript, err := w.providers.Transcriber.Transcribe(ctx, audioPath, job.Language)
	if err != nil {
		return services.WithCode(
			services.Wrap(services.ErrTransient, "pipeline", "transcribe", "", err),
			services.CodeTranscribeFailed)
	}
	transcriptJSON, err := json.Marshal(transcript)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "transcribe", "encode transcript", err)
	}
	transcriptPath := filepath.Join(workDir, "transcript.json")
	if err := os.WriteFile(transcriptPath, transcriptJSON, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "transcribe", transcriptPath, err)
	}
	transcriptURI, err := w.upload(ctx, storage.TranscriptKey(jobID), transcriptPath, "application/json")
	if err != nil {
		return err
	}
	w.recorder.ObserveStage(string(jobs.StageTranscribe), time.Since(stageStart))

	// DETECT_SCENES
	if err := w.checkpoint(ctx, jobID, jobs.StageDetectScenes); err != nil {
		return err
	}
	stageStart = time.Now()
	sceneTimes, err := w.providers.Media.DetectScenes(ctx, videoPath)
	if err != nil {
		return err
	}
	w.recorder.ObserveStage(string(jobs.StageDetectScenes), time.Since(stageStart))

	// EXTRACT_FRAMES
	if err := w.checkpoint(ctx, jobID, jobs.StageExtractFrames); err != nil {
		return err
	}
	stageStart = time.Now()
	candidates, frames, err := w.extractFrames(ctx, jobID, videoPath, workDir, sceneTimes)
	if err != nil {
		return err
	}
	w.recorder.ObserveStage(string(jobs.StageExtractFrames), time.Since(stageStart))

	// GENERATE_STEPS
	if err := w.checkpoint(ctx, jobID, jobs.StageGenerateSteps); err != nil {
		return err
	}
	stageStart = time.Now()
	doc, err := w.providers.Generator.GenerateSteps(ctx, GenerateRequest{
		Title:           job.Title,
		Goal:            job.Goal,
		Language:        job.Language,
		Transcript:      transcript,
		CandidateFrames: candidates,
		Video:           meta,
	})
	if err != nil {
		return services.WithCode(
			services.Wrap(services.ErrTransient, "pipeline", "generate steps", "", err),
			services.CodeLLMFailed)
	}
	stepsJSON, err := steps.Encode(doc)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "generate steps", "encode document", err)
	}
	if err := steps.Validate(stepsJSON); err != nil {
		return services.WithCode(err, services.CodeLLMSchemaInvalid)
	}
	w.recorder.ObserveStage(string(jobs.StageGenerateSteps), time.Since(stageStart))

	// GENERATE_PPTX
	if err := w.checkpoint(ctx, jobID, jobs.StageGeneratePPTX); err != nil {
		return err
	}
	stageStart = time.Now()
	deck, err := w.providers.Renderer.Render(ctx, doc, frames)
	if err != nil {
		return services.WithCode(
			services.Wrap(services.ErrTransient, "pipeline", "render slides", "", err),
			services.CodeSlidesFailed)
	}
	slidesPath := filepath.Join(workDir, "manual.pptx")
	if err := os.WriteFile(slidesPath, deck, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "render slides", slidesPath, err)
	}
	slidesURI, err := w.upload(ctx, storage.SlidesKey(jobID), slidesPath,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation")
	if err != nil {
		return err
	}
	w.recorder.ObserveStage(string(jobs.StageGeneratePPTX), time.Since(stageStart))

	// FINALIZE: store the step document artifact and flip to SUCCEEDED.
	if err := w.checkpoint(ctx, jobID, jobs.StageFinalize); err != nil {
		return err
	}
	version, err := w.store.NextVersion(ctx, jobID)
	if err != nil {
		return err
	}
	stepsKey := storage.StepsKey(jobID, version)
	stepsURI, err := w.artifacts.Put(ctx, stepsKey, bytes.NewReader(stepsJSON), "application/json")
	if err != nil {
		return err
	}

	outputs := jobs.Outputs{
		AudioURI:        audioURI,
		TranscriptURI:   transcriptURI,
		StepsJSONURI:    stepsURI,
		SlidesURI:       slidesURI,
		FramesPrefixURI: w.artifacts.URI(storage.FramesPrefix(jobID)),
	}
	if _, err := w.store.MarkSucceeded(ctx, jobID, outputs, meta, string(stepsJSON)); err != nil {
		// A cancel racing the finish wins; drop the orphan artifact.
		if errors.Is(err, services.ErrConflict) {
			if delErr := w.artifacts.Delete(ctx, stepsKey); delErr != nil {
				logging.WithContext(ctx, w.logger).Warn("orphan steps artifact not deleted", logging.Error(delErr))
			}
		}
		return err
	}
	w.recorder.VersionAppended()
	w.recorder.JobCompleted(string(jobs.StatusSucceeded))

	logger.Info("job completed",
		logging.Duration("elapsed", time.Since(started)),
		logging.Int("steps", len(doc.Steps)))
	return nil
}

func (w *Worker) regenerateSlides(ctx context.Context, jobID string) error {
	logger := logging.WithContext(ctx, w.logger)
	started := time.Now()

	if err := w.checkpoint(ctx, jobID, jobs.StageGeneratePPTXOnly); err != nil {
		return err
	}

	entry, err := w.store.GetVersion(ctx, jobID, 0)
	if err != nil {
		return err
	}
	doc, err := steps.Decode([]byte(entry.StepsJSON))
	if err != nil {
		return err
	}

	frames := make(map[string][]byte, len(doc.Steps))
	for _, step := range doc.Steps {
		if _, ok := frames[step.FrameFile]; ok {
			continue
		}
		body, err := w.artifacts.Get(ctx, storage.FrameKey(jobID, step.FrameFile))
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				logger.Warn("frame missing during regeneration", logging.String("frame", step.FrameFile))
				continue
			}
			return err
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return services.Wrap(services.ErrStorage, "pipeline", "read frame", step.FrameFile, err)
		}
		frames[step.FrameFile] = data
	}

	deck, err := w.providers.Renderer.Render(ctx, doc, frames)
	if err != nil {
		return services.WithCode(
			services.Wrap(services.ErrTransient, "pipeline", "render slides", "", err),
			services.CodeSlidesFailed)
	}

	slidesURI, err := w.artifacts.Put(ctx, storage.SlidesKey(jobID), bytes.NewReader(deck),
		"application/vnd.openxmlformats-officedocument.presentationml.presentation")
	if err != nil {
		return err
	}
	if err := w.store.MarkRegenerated(ctx, jobID, slidesURI); err != nil {
		return err
	}
	w.recorder.ObserveStage(string(jobs.StageGeneratePPTXOnly), time.Since(started))
	w.recorder.JobCompleted(string(jobs.StatusSucceeded))
	logger.Info("slides regenerated", logging.Duration("elapsed", time.Since(started)))
	return nil
}

func (w *Worker) extractFrames(ctx context.Context, jobID, videoPath, workDir string, sceneTimes []float64) ([]CandidateFrame, map[string][]byte, error) {
	framesDir := filepath.Join(workDir, "frames")
	candidates := make([]CandidateFrame, 0, len(sceneTimes))
	frames := make(map[string][]byte, len(sceneTimes))

	for i, at := range sceneTimes {
		name := fmt.Sprintf("frame_%04d.jpg", i+1)
		framePath := filepath.Join(framesDir, name)
		if err := w.providers.Media.ExtractFrame(ctx, videoPath, at, framePath); err != nil {
			return nil, nil, err
		}
		data, err := os.ReadFile(framePath)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrTransient, "pipeline", "read frame", framePath, err)
		}
		if _, err := w.artifacts.Put(ctx, storage.FrameKey(jobID, name), bytes.NewReader(data), "image/jpeg"); err != nil {
			return nil, nil, err
		}
		candidates = append(candidates, CandidateFrame{FileName: name, AtSec: at})
		frames[name] = data
	}
	return candidates, frames, nil
}

func (w *Worker) download(ctx context.Context, key, target string) error {
	body, err := w.artifacts.Get(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	file, err := os.Create(target)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "download", target, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, body); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "download", key, err)
	}
	return nil
}

func (w *Worker) upload(ctx context.Context, key, sourcePath, contentType string) (string, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "pipeline", "upload", sourcePath, err)
	}
	defer file.Close()
	return w.artifacts.Put(ctx, key, file, contentType)
}
