package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusSucceeded,
	StatusFailed,
	StatusCanceled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus normalizes and validates a status string.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether no further transitions are expected. FAILED is
// terminal for workers but can still be retried by the user.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Stage identifies the pipeline phase a RUNNING job is in.
type Stage string

const (
	StageIngest           Stage = "INGEST"
	StageExtractAudio     Stage = "EXTRACT_AUDIO"
	StageTranscribe       Stage = "TRANSCRIBE"
	StageDetectScenes     Stage = "DETECT_SCENES"
	StageExtractFrames    Stage = "EXTRACT_FRAMES"
	StageGenerateSteps    Stage = "GENERATE_STEPS"
	StageGeneratePPTX     Stage = "GENERATE_PPTX"
	StageGeneratePPTXOnly Stage = "GENERATE_PPTX_ONLY"
	StageFinalize         Stage = "FINALIZE"
)

// Edit sources recorded on ledger rows.
const (
	EditSourceLLM    = "llm"
	EditSourceManual = "manual"
)

// Job is one video-to-manual conversion request.
type Job struct {
	ID       string
	Status   Status
	Stage    Stage
	Progress int

	Title    string
	Goal     string
	Language string

	VideoDurationSec float64
	VideoFPS         float64
	VideoResolution  string

	InputVideoURI   string
	AudioURI        string
	TranscriptURI   string
	StepsJSONURI    string
	SlidesURI       string
	FramesPrefixURI string

	CurrentVersion int

	ErrorCode    string
	ErrorMessage string
	TraceID      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StepsVersion is one immutable entry in a job's version ledger.
type StepsVersion struct {
	ID         string
	JobID      string
	Version    int
	StepsJSON  string
	EditSource string
	EditNote   string
	CreatedAt  time.Time
}

// VideoMeta carries what the pipeline probed from the input.
type VideoMeta struct {
	DurationSec float64
	FPS         float64
	Resolution  string
}

// Outputs are the artifact URIs a successful run produced.
type Outputs struct {
	AudioURI        string
	TranscriptURI   string
	StepsJSONURI    string
	SlidesURI       string
	FramesPrefixURI string
}
