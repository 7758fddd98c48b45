// Package timecode converts between seconds and the MM:SS strings used in
// step documents and slide captions.
package timecode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var mmssPattern = regexp.MustCompile(`^[0-9]{2}:[0-9]{2}$`)

// Format renders a duration in seconds as zero-padded MM:SS. Fractional
// seconds are truncated and negative inputs clamp to 00:00. Durations of an
// hour or longer keep accumulating minutes (90:00 for 5400 seconds) so the
// output stays two-field.
func Format(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Parse converts an MM:SS or HH:MM:SS string to seconds. Inputs produced by
// language models occasionally carry the hour field, so both layouts are
// accepted.
func Parse(value string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	switch len(parts) {
	case 2:
		minutes, err := parseField(parts[0])
		if err != nil {
			return 0, fmt.Errorf("parse timecode %q: %w", value, err)
		}
		secs, err := parseField(parts[1])
		if err != nil {
			return 0, fmt.Errorf("parse timecode %q: %w", value, err)
		}
		return float64(minutes*60 + secs), nil
	case 3:
		hours, err := parseField(parts[0])
		if err != nil {
			return 0, fmt.Errorf("parse timecode %q: %w", value, err)
		}
		minutes, err := parseField(parts[1])
		if err != nil {
			return 0, fmt.Errorf("parse timecode %q: %w", value, err)
		}
		secs, err := parseField(parts[2])
		if err != nil {
			return 0, fmt.Errorf("parse timecode %q: %w", value, err)
		}
		return float64(hours*3600 + minutes*60 + secs), nil
	default:
		return 0, fmt.Errorf("parse timecode %q: expected MM:SS or HH:MM:SS", value)
	}
}

// IsValid reports whether value matches the strict MM:SS layout required of
// stored step documents.
func IsValid(value string) bool {
	return mmssPattern.MatchString(value)
}

func parseField(field string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("field %q is not numeric", field)
	}
	if n < 0 {
		return 0, fmt.Errorf("field %q is negative", field)
	}
	return n, nil
}
