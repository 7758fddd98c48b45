package timecode

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{90.7, "01:30"},
		{3599, "59:59"},
		{5400, "90:00"},
		{-12, "00:00"},
	}
	for _, tc := range cases {
		if got := Format(tc.seconds); got != tc.want {
			t.Errorf("Format(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		value string
		want  float64
	}{
		{"00:00", 0},
		{"01:30", 90},
		{"12:05", 725},
		{"01:02:03", 3723},
		{" 02:10 ", 130},
	}
	for _, tc := range cases {
		got, err := Parse(tc.value)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.value, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, value := range []string{"", "90", "1:2:3:4", "aa:bb", "-1:30"} {
		if _, err := Parse(value); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", value)
		}
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"00:00", "01:30", "99:59"}
	invalid := []string{"1:30", "01:2", "001:30", "01:02:03", "01-30", ""}
	for _, value := range valid {
		if !IsValid(value) {
			t.Errorf("IsValid(%q) = false, want true", value)
		}
	}
	for _, value := range invalid {
		if IsValid(value) {
			t.Errorf("IsValid(%q) = true, want false", value)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 42, 119, 3599} {
		parsed, err := Parse(Format(seconds))
		if err != nil {
			t.Fatalf("round trip %v: %v", seconds, err)
		}
		if parsed != seconds {
			t.Errorf("round trip %v produced %v", seconds, parsed)
		}
	}
}
