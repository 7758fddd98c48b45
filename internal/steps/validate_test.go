package steps

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"manualstudio/internal/services"
)

func validDocument() map[string]any {
	return map[string]any{
		"title":    "コーヒーメーカーの使い方",
		"goal":     "朝のコーヒーを淹れる",
		"language": "ja",
		"source": map[string]any{
			"video_duration_sec": 182.5,
			"video_fps":          30.0,
			"resolution":         "1920x1080",
		},
		"steps": []map[string]any{
			{
				"no":         1,
				"start":      "00:00",
				"end":        "00:20",
				"shot":       "00:08",
				"frame_file": "frame_0001.jpg",
				"telop":      "電源を入れる",
				"action":     "押す",
				"target":     "電源ボタン",
				"narration":  "本体右側の電源ボタンを押します。",
			},
			{
				"no":         2,
				"start":      "00:20",
				"end":        "00:45",
				"shot":       "00:31",
				"frame_file": "frame_0002.jpg",
				"telop":      "水を注ぐ",
				"action":     "注ぐ",
				"target":     "タンク",
				"narration":  "タンクに水を注ぎます。",
				"caution":    "MAXラインを超えないこと",
			},
		},
	}
}

func marshal(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return raw
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	if err := Validate(marshal(t, validDocument())); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
}

func TestValidateAcceptsOptionalSections(t *testing.T) {
	doc := validDocument()
	doc["common_mistakes"] = []map[string]any{
		{"mistake": "水を入れすぎる", "fix": "MAXラインまでにする"},
	}
	doc["quiz"] = []map[string]any{
		{"type": "choice", "q": "最初の操作は?", "a": "電源を入れる", "choices": []string{"電源を入れる", "水を注ぐ"}},
		{"type": "text", "q": "注意点は?", "a": "MAXラインを超えない"},
	}
	if err := Validate(marshal(t, doc)); err != nil {
		t.Fatalf("document with optional sections rejected: %v", err)
	}
}

func TestValidateWrapsSchemaInvalid(t *testing.T) {
	doc := validDocument()
	delete(doc, "title")
	err := Validate(marshal(t, doc))
	if !errors.Is(err, services.ErrSchemaInvalid) {
		t.Fatalf("error does not wrap ErrSchemaInvalid: %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error does not expose ValidationError: %v", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0] != "title is required" {
		t.Fatalf("unexpected violations: %v", verr.Violations)
	}
}

func TestValidateRejectsNonObject(t *testing.T) {
	if err := Validate([]byte(`[1, 2]`)); !errors.Is(err, services.ErrSchemaInvalid) {
		t.Fatalf("array accepted: %v", err)
	}
}

func TestValidateStepViolationsCarryPaths(t *testing.T) {
	doc := validDocument()
	stepsList := doc["steps"].([]map[string]any)
	stepsList[1]["no"] = 0
	stepsList[1]["start"] = "1:30"
	delete(stepsList[1], "narration")

	err := Validate(marshal(t, doc))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	joined := strings.Join(verr.Violations, "; ")
	for _, want := range []string{
		"steps[1].no must be >= 1",
		`steps[1].start must match MM:SS, got "1:30"`,
		"steps[1].narration is required",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("violations missing %q: %s", want, joined)
		}
	}
}

func TestValidateTelopLengthCountsRunes(t *testing.T) {
	doc := validDocument()
	stepsList := doc["steps"].([]map[string]any)

	stepsList[0]["telop"] = strings.Repeat("あ", TelopMaxRunes)
	if err := Validate(marshal(t, doc)); err != nil {
		t.Fatalf("30-rune telop rejected: %v", err)
	}

	stepsList[0]["telop"] = strings.Repeat("あ", TelopMaxRunes+1)
	if err := Validate(marshal(t, doc)); !errors.Is(err, services.ErrSchemaInvalid) {
		t.Fatalf("31-rune telop accepted: %v", err)
	}
}

func TestValidateQuizType(t *testing.T) {
	doc := validDocument()
	doc["quiz"] = []map[string]any{
		{"type": "essay", "q": "?", "a": "!"},
	}
	err := Validate(marshal(t, doc))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Violations[0], "quiz[0].type") {
		t.Fatalf("unexpected violation: %v", verr.Violations)
	}
}

func TestValidateMissingSourceFields(t *testing.T) {
	doc := validDocument()
	doc["source"] = map[string]any{"video_fps": 30.0}
	err := Validate(marshal(t, doc))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	joined := strings.Join(verr.Violations, "; ")
	for _, want := range []string{"source.video_duration_sec is required", "source.resolution is required"} {
		if !strings.Contains(joined, want) {
			t.Errorf("violations missing %q: %s", want, joined)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	raw := marshal(t, validDocument())
	doc, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "コーヒーメーカーの使い方" || len(doc.Steps) != 2 {
		t.Fatalf("decoded document mismatch: %+v", doc)
	}
	if doc.Steps[1].Caution != "MAXラインを超えないこと" {
		t.Fatalf("caution lost: %+v", doc.Steps[1])
	}

	encoded, err := Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := Validate(encoded); err != nil {
		t.Fatalf("re-encoded document invalid: %v", err)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	if _, err := Decode([]byte(`{"title": "x"}`)); !errors.Is(err, services.ErrSchemaInvalid) {
		t.Fatalf("invalid document decoded: %v", err)
	}
}
