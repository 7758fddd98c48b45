package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
work_dir = %q

[storage]
backend = "local"
local_dir = %q
bucket = "test-bucket"

[logging]
format = "console"
level = "warn"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "work"),
		filepath.Join(base, "artifacts"))

	path := filepath.Join(base, "manualstudio.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output does not name the target: %s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	// A second init refuses to clobber the file.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error on existing config")
	}
}

func TestJobsCreateAndList(t *testing.T) {
	configPath := writeTestConfig(t)

	video := filepath.Join(t.TempDir(), "閉店作業.mp4")
	if err := os.WriteFile(video, []byte("fake video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	out, err := runCommand(t, "-c", configPath, "jobs", "create", video, "--goal", "閉店処理を覚える")
	if err != nil {
		t.Fatalf("jobs create: %v\n%s", err, out)
	}
	if !strings.Contains(out, "created") {
		t.Fatalf("unexpected create output: %s", out)
	}

	out, err = runCommand(t, "-c", configPath, "jobs", "list")
	if err != nil {
		t.Fatalf("jobs list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "QUEUED") || !strings.Contains(out, "閉店作業") {
		t.Fatalf("job missing from listing: %s", out)
	}

	out, err = runCommand(t, "-c", configPath, "jobs", "list", "--status", "FAILED")
	if err != nil {
		t.Fatalf("jobs list filtered: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No jobs found") {
		t.Fatalf("expected empty listing: %s", out)
	}
}

func TestJobsCreateRejectsUnknownExtension(t *testing.T) {
	configPath := writeTestConfig(t)

	doc := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(doc, []byte("not a video"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := runCommand(t, "-c", configPath, "jobs", "create", doc); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCommand(t, "-c", configPath, "jobs", "list", "--status", "SLEEPING"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestHelpers(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := dash(""); got != "-" {
		t.Fatalf("dash = %q", got)
	}
	if got := truncate("レジ締め作業の手順書", 5); got != "レジ締め…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
