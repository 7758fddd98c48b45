package storage

import (
	"strings"
	"testing"
)

func TestKeyLayout(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{InputKey("j1", ".mp4"), "jobs/j1/input.mp4"},
		{InputKey("j1", "MOV"), "jobs/j1/input.mov"},
		{AudioKey("j1"), "jobs/j1/audio.wav"},
		{TranscriptKey("j1"), "jobs/j1/transcript.json"},
		{StepsKey("j1", 3), "jobs/j1/steps_v3.json"},
		{SlidesKey("j1"), "jobs/j1/manual.pptx"},
		{FramesPrefix("j1"), "jobs/j1/frames/"},
		{FrameKey("j1", "frame_0001.jpg"), "jobs/j1/frames/frame_0001.jpg"},
		{FrameKey("j1", "../escape.jpg"), "jobs/j1/frames/escape.jpg"},
		{FramesZipKey("j1"), "jobs/j1/frames.zip"},
		{JobPrefix("j1"), "jobs/j1/"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}

func TestKeyFromURI(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"s3://manuals/jobs/j1/input.mp4", "jobs/j1/input.mp4"},
		{"s3://manuals", ""},
		{"jobs/j1/input.mp4", "jobs/j1/input.mp4"},
	}
	for _, tc := range cases {
		if got := KeyFromURI(tc.uri); got != tc.want {
			t.Errorf("KeyFromURI(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}

func TestURIRoundTrip(t *testing.T) {
	uri := URIFor("manuals", StepsKey("j1", 2))
	if uri != "s3://manuals/jobs/j1/steps_v2.json" {
		t.Fatalf("unexpected uri %q", uri)
	}
	if got := KeyFromURI(uri); got != StepsKey("j1", 2) {
		t.Fatalf("round trip produced %q", got)
	}
}

func TestContentDispositionASCII(t *testing.T) {
	got := ContentDisposition("manual.pptx")
	if got != `attachment; filename="manual.pptx"` {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestContentDispositionNonASCII(t *testing.T) {
	got := ContentDisposition("マニュアル.pptx")
	if !strings.Contains(got, "filename*=UTF-8''") {
		t.Fatalf("missing RFC 5987 form: %q", got)
	}
	if !strings.Contains(got, `filename="`) {
		t.Fatalf("missing ASCII fallback: %q", got)
	}
	if strings.ContainsAny(got, "マニュアル") {
		t.Fatalf("raw non-ASCII leaked into header: %q", got)
	}
}
