package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supported lists the base codes the transcription and generation providers
// handle. Keep sorted; Supported() returns a copy.
var supported = []string{
	"de",
	"en",
	"es",
	"fr",
	"it",
	"ja",
	"ko",
	"pt",
	"zh",
}

var supportedSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(supported))
	for _, code := range supported {
		set[code] = struct{}{}
	}
	return set
}()

// Normalize reduces any language identifier to its ISO 639-1 base code.
// Accepts bare codes ("ja"), BCP 47 tags ("en-US", "zh-Hant"), and English
// language names ("Japanese"). Returns the empty string when the input
// cannot be recognized.
func Normalize(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		if tag = fromName(trimmed); tag == language.Und {
			return ""
		}
	}

	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// IsSupported reports whether value normalizes to a language the providers
// can process.
func IsSupported(value string) bool {
	code := Normalize(value)
	if code == "" {
		return false
	}
	_, ok := supportedSet[code]
	return ok
}

// Supported returns the base codes the providers accept, sorted.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// DisplayName returns the English name for a language code, or the
// uppercased input when the code is unrecognized.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return strings.ToUpper(trimmed)
	}
	return name
}

// fromName matches English language names against the supported set so
// inputs like "Japanese" still resolve.
func fromName(value string) language.Tag {
	lowered := strings.ToLower(value)
	namer := display.English.Tags()
	for _, code := range supported {
		tag := language.Make(code)
		if strings.ToLower(namer.Name(tag)) == lowered {
			return tag
		}
	}
	return language.Und
}
