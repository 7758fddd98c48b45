package steps

import "encoding/json"

// Document is one version of a generated operations manual. It is stored
// verbatim as steps_v{N}.json and consumed by the slide renderer.
type Document struct {
	Title          string     `json:"title"`
	Goal           string     `json:"goal"`
	Language       string     `json:"language"`
	Source         Source     `json:"source"`
	Steps          []Step     `json:"steps"`
	CommonMistakes []Mistake  `json:"common_mistakes,omitempty"`
	Quiz           []QuizItem `json:"quiz,omitempty"`
}

// Source records where the document came from.
type Source struct {
	VideoDurationSec      float64 `json:"video_duration_sec"`
	VideoFPS              float64 `json:"video_fps"`
	Resolution            string  `json:"resolution"`
	TranscriptionProvider string  `json:"transcription_provider,omitempty"`
	LLMProvider           string  `json:"llm_provider,omitempty"`
}

// Step is a single numbered instruction tied to a frame of the source video.
type Step struct {
	No        int    `json:"no"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Shot      string `json:"shot"`
	FrameFile string `json:"frame_file"`
	Telop     string `json:"telop"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	Narration string `json:"narration"`
	Caution   string `json:"caution,omitempty"`
}

// Mistake pairs a common operator error with its correction.
type Mistake struct {
	Mistake string `json:"mistake"`
	Fix     string `json:"fix"`
}

// QuizItem is a comprehension check appended to the manual.
type QuizItem struct {
	Type    string   `json:"type"`
	Q       string   `json:"q"`
	A       string   `json:"a"`
	Choices []string `json:"choices,omitempty"`
}

// Quiz item types.
const (
	QuizChoice = "choice"
	QuizText   = "text"
)

// Decode parses and validates raw JSON into a Document. The returned error
// wraps ErrSchemaInvalid from the services package when validation fails.
func Decode(raw []byte) (*Document, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode marshals a document with stable two-space indentation, matching the
// layout of generator output so stored versions diff cleanly.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
