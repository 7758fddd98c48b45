package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"manualstudio/internal/jobs"
	"manualstudio/internal/steps"
	"manualstudio/internal/timecode"
)

// Deterministic providers for development and tests. The mock pipeline
// produces a valid manual from any input without external tools or APIs.

// MockMedia fabricates media operations: a fixed-duration probe, an empty
// WAV, scene cuts every 20 seconds, and single-byte frame files.
type MockMedia struct {
	Duration float64
}

// NewMockMedia builds a media processor reporting the given duration.
func NewMockMedia(duration float64) *MockMedia {
	if duration <= 0 {
		duration = 60
	}
	return &MockMedia{Duration: duration}
}

func (m *MockMedia) Probe(ctx context.Context, videoPath string) (jobs.VideoMeta, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return jobs.VideoMeta{}, err
	}
	return jobs.VideoMeta{DurationSec: m.Duration, FPS: 30, Resolution: "1920x1080"}, nil
}

func (m *MockMedia) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(audioPath, []byte("RIFF"), 0o644)
}

func (m *MockMedia) DetectScenes(ctx context.Context, videoPath string) ([]float64, error) {
	var times []float64
	for t := 0.0; t < m.Duration; t += 20 {
		times = append(times, t)
	}
	return times, nil
}

func (m *MockMedia) ExtractFrame(ctx context.Context, videoPath string, atSec float64, framePath string) error {
	if err := os.MkdirAll(filepath.Dir(framePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(framePath, []byte{0xff, 0xd8, 0xff, 0xd9}, 0o644)
}

// MockTranscriber emits one segment per 20-second span.
type MockTranscriber struct{}

func NewMockTranscriber() *MockTranscriber { return &MockTranscriber{} }

func (t *MockTranscriber) Transcribe(ctx context.Context, audioPath, language string) (Transcript, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return Transcript{}, err
	}
	transcript := Transcript{Language: language}
	for i := 0; i < 3; i++ {
		start := float64(i * 20)
		transcript.Segments = append(transcript.Segments, Segment{
			Start: start,
			End:   start + 20,
			Text:  fmt.Sprintf("操作の説明 %d", i+1),
		})
	}
	return transcript, nil
}

// MockGenerator builds one step per transcript segment, choosing the
// candidate frame closest to the segment midpoint.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

func (g *MockGenerator) GenerateSteps(ctx context.Context, req GenerateRequest) (*steps.Document, error) {
	title := req.Title
	if title == "" {
		title = "操作マニュアル"
	}
	goal := req.Goal
	if goal == "" {
		goal = "動画の手順を再現する"
	}
	language := req.Language
	if language == "" {
		language = "ja"
	}

	doc := &steps.Document{
		Title:    title,
		Goal:     goal,
		Language: language,
		Source: steps.Source{
			VideoDurationSec:      req.Video.DurationSec,
			VideoFPS:              req.Video.FPS,
			Resolution:            req.Video.Resolution,
			TranscriptionProvider: "mock",
			LLMProvider:           "mock",
		},
	}

	for i, segment := range req.Transcript.Segments {
		mid := (segment.Start + segment.End) / 2
		doc.Steps = append(doc.Steps, steps.Step{
			No:        i + 1,
			Start:     timecode.Format(segment.Start),
			End:       timecode.Format(segment.End),
			Shot:      timecode.Format(mid),
			FrameFile: closestFrame(req.CandidateFrames, mid),
			Telop:     fmt.Sprintf("手順%d", i+1),
			Action:    "操作する",
			Target:    "画面",
			Narration: segment.Text + "。",
		})
	}
	return doc, nil
}

func closestFrame(candidates []CandidateFrame, atSec float64) string {
	if len(candidates) == 0 {
		return "frame_0001.jpg"
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if abs(c.AtSec-atSec) < abs(best.AtSec-atSec) {
			best = c
		}
	}
	return best.FileName
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// MockRenderer emits a recognizable placeholder deck.
type MockRenderer struct{}

func NewMockRenderer() *MockRenderer { return &MockRenderer{} }

func (r *MockRenderer) Render(ctx context.Context, doc *steps.Document, frames map[string][]byte) ([]byte, error) {
	out := fmt.Sprintf("PPTX %s (%d steps, %d frames)", doc.Title, len(doc.Steps), len(frames))
	return []byte(out), nil
}
