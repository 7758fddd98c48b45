package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"manualstudio/internal/services"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger = NewComponentLogger(logger, "job-service")
	logger.Info("job created", String(FieldJobID, "abc"), Int(FieldVersion, 1))

	line := buf.String()
	for _, want := range []string{"INFO", "job-service: job created", "job_id=abc", "version=1"} {
		if !strings.Contains(line, want) {
			t.Errorf("output missing %q: %s", want, line)
		}
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar), false))
	logger.Warn("upload failed", String("reason", "disk full"))
	if !strings.Contains(buf.String(), `reason="disk full"`) {
		t.Fatalf("value not quoted: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))
	logger.Info("hidden")
	logger.Error("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "visible") {
		t.Fatalf("level filtering broken: %s", out)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar), false))

	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithTraceID(ctx, "deadbeef")
	WithContext(ctx, logger).Info("report")

	out := buf.String()
	if !strings.Contains(out, "job_id=job-1") || !strings.Contains(out, "trace_id=deadbeef") {
		t.Fatalf("context fields missing: %s", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected format error")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing happens")
}
