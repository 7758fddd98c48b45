package pipeline

import (
	"context"
	"fmt"

	"manualstudio/internal/config"
	"manualstudio/internal/jobs"
	"manualstudio/internal/steps"
)

// Segment is one span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the full transcription of a job's audio track.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// GenerateRequest carries everything the step generator needs.
type GenerateRequest struct {
	Title           string
	Goal            string
	Language        string
	Transcript      Transcript
	CandidateFrames []CandidateFrame
	Video           jobs.VideoMeta
}

// CandidateFrame pairs an extracted frame file with its timestamp.
type CandidateFrame struct {
	FileName string
	AtSec    float64
}

// MediaProcessor wraps the local media tooling (ffmpeg in production).
type MediaProcessor interface {
	// Probe reads duration, frame rate, and resolution from a video file.
	Probe(ctx context.Context, videoPath string) (jobs.VideoMeta, error)
	// ExtractAudio writes the audio track as WAV to audioPath.
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
	// DetectScenes returns scene-change timestamps in seconds, ascending.
	DetectScenes(ctx context.Context, videoPath string) ([]float64, error)
	// ExtractFrame writes a single frame at the given timestamp as JPEG.
	ExtractFrame(ctx context.Context, videoPath string, atSec float64, framePath string) error
}

// Transcriber converts an audio file into timed text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (Transcript, error)
}

// StepGenerator turns a transcript plus candidate frames into a structured
// step document.
type StepGenerator interface {
	GenerateSteps(ctx context.Context, req GenerateRequest) (*steps.Document, error)
}

// SlideRenderer turns a step document and its frame images into a slide
// deck (PPTX bytes).
type SlideRenderer interface {
	Render(ctx context.Context, doc *steps.Document, frames map[string][]byte) ([]byte, error)
}

// Providers bundles the pluggable stages.
type Providers struct {
	Media       MediaProcessor
	Transcriber Transcriber
	Generator   StepGenerator
	Renderer    SlideRenderer
}

// NewProviders resolves the configured provider names once at startup.
// Remote transcription and generation backends plug in here; this build
// ships the deterministic mock used in development and tests.
func NewProviders(cfg *config.Config) (Providers, error) {
	p := Providers{
		Media:    NewFFmpegProcessor(""),
		Renderer: NewMockRenderer(),
	}

	switch cfg.Providers.Transcriber {
	case "mock":
		p.Transcriber = NewMockTranscriber()
	default:
		return Providers{}, fmt.Errorf("transcriber provider %q is not available in this build", cfg.Providers.Transcriber)
	}

	switch cfg.Providers.StepGenerator {
	case "mock":
		p.Generator = NewMockGenerator()
	default:
		return Providers{}, fmt.Errorf("step generator provider %q is not available in this build", cfg.Providers.StepGenerator)
	}

	return p, nil
}
