package steps

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"manualstudio/internal/services"
	"manualstudio/internal/timecode"
)

// TelopMaxRunes caps the on-slide caption length. The limit counts runes,
// not bytes, so Japanese captions are not penalized.
const TelopMaxRunes = 30

// ValidationError carries every schema violation found in one pass so a
// caller editing a document sees the full list at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "steps document invalid: " + e.Violations[0]
	}
	return fmt.Sprintf("steps document invalid: %d violations: %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// Validate checks raw JSON against the steps document schema. On failure the
// returned error wraps services.ErrSchemaInvalid and, via errors.As, exposes
// a *ValidationError listing each violation with its JSON path.
func Validate(raw []byte) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return invalid([]string{"document is not a JSON object"})
	}

	var v violations

	requireString(&v, root, "title")
	requireString(&v, root, "goal")
	requireString(&v, root, "language")
	validateSource(&v, root)
	validateSteps(&v, root)
	validateMistakes(&v, root)
	validateQuiz(&v, root)

	if len(v) > 0 {
		return invalid(v)
	}
	return nil
}

type violations []string

func (v *violations) addf(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func invalid(list []string) error {
	return services.Wrap(services.ErrSchemaInvalid, "steps", "validate", "schema check failed",
		&ValidationError{Violations: list})
}

func requireString(v *violations, obj map[string]json.RawMessage, key string) {
	raw, ok := obj[key]
	if !ok {
		v.addf("%s is required", key)
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		v.addf("%s must be a string", key)
	}
}

func validateSource(v *violations, root map[string]json.RawMessage) {
	raw, ok := root["source"]
	if !ok {
		v.addf("source is required")
		return
	}
	var src map[string]json.RawMessage
	if err := json.Unmarshal(raw, &src); err != nil {
		v.addf("source must be an object")
		return
	}
	for _, key := range []string{"video_duration_sec", "video_fps"} {
		raw, ok := src[key]
		if !ok {
			v.addf("source.%s is required", key)
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			v.addf("source.%s must be a number", key)
		}
	}
	if raw, ok := src["resolution"]; !ok {
		v.addf("source.resolution is required")
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			v.addf("source.resolution must be a string")
		}
	}
}

func validateSteps(v *violations, root map[string]json.RawMessage) {
	raw, ok := root["steps"]
	if !ok {
		v.addf("steps is required")
		return
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		v.addf("steps must be an array of objects")
		return
	}
	for i, item := range items {
		path := fmt.Sprintf("steps[%d]", i)
		validateStep(v, path, item)
	}
}

func validateStep(v *violations, path string, item map[string]json.RawMessage) {
	if raw, ok := item["no"]; !ok {
		v.addf("%s.no is required", path)
	} else {
		var no int
		if err := json.Unmarshal(raw, &no); err != nil {
			v.addf("%s.no must be an integer", path)
		} else if no < 1 {
			v.addf("%s.no must be >= 1", path)
		}
	}

	for _, key := range []string{"start", "end", "shot"} {
		raw, ok := item[key]
		if !ok {
			v.addf("%s.%s is required", path, key)
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			v.addf("%s.%s must be a string", path, key)
			continue
		}
		if !timecode.IsValid(value) {
			v.addf("%s.%s must match MM:SS, got %q", path, key, value)
		}
	}

	for _, key := range []string{"frame_file", "action", "target", "narration"} {
		raw, ok := item[key]
		if !ok {
			v.addf("%s.%s is required", path, key)
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			v.addf("%s.%s must be a string", path, key)
		}
	}

	if raw, ok := item["telop"]; !ok {
		v.addf("%s.telop is required", path)
	} else {
		var telop string
		if err := json.Unmarshal(raw, &telop); err != nil {
			v.addf("%s.telop must be a string", path)
		} else if utf8.RuneCountInString(telop) > TelopMaxRunes {
			v.addf("%s.telop exceeds %d characters", path, TelopMaxRunes)
		}
	}

	if raw, ok := item["caution"]; ok {
		var caution string
		if err := json.Unmarshal(raw, &caution); err != nil {
			v.addf("%s.caution must be a string", path)
		}
	}
}

func validateMistakes(v *violations, root map[string]json.RawMessage) {
	raw, ok := root["common_mistakes"]
	if !ok {
		return
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		v.addf("common_mistakes must be an array of objects")
		return
	}
	for i, item := range items {
		path := fmt.Sprintf("common_mistakes[%d]", i)
		for _, key := range []string{"mistake", "fix"} {
			raw, ok := item[key]
			if !ok {
				v.addf("%s.%s is required", path, key)
				continue
			}
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				v.addf("%s.%s must be a string", path, key)
			}
		}
	}
}

func validateQuiz(v *violations, root map[string]json.RawMessage) {
	raw, ok := root["quiz"]
	if !ok {
		return
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		v.addf("quiz must be an array of objects")
		return
	}
	for i, item := range items {
		path := fmt.Sprintf("quiz[%d]", i)

		if raw, ok := item["type"]; !ok {
			v.addf("%s.type is required", path)
		} else {
			var kind string
			if err := json.Unmarshal(raw, &kind); err != nil {
				v.addf("%s.type must be a string", path)
			} else if kind != QuizChoice && kind != QuizText {
				v.addf("%s.type must be %q or %q, got %q", path, QuizChoice, QuizText, kind)
			}
		}

		for _, key := range []string{"q", "a"} {
			raw, ok := item[key]
			if !ok {
				v.addf("%s.%s is required", path, key)
				continue
			}
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				v.addf("%s.%s must be a string", path, key)
			}
		}

		if raw, ok := item["choices"]; ok {
			var choices []string
			if err := json.Unmarshal(raw, &choices); err != nil {
				v.addf("%s.choices must be an array of strings", path)
			}
		}
	}
}
