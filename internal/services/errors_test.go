package services

import (
	"errors"
	"testing"
)

func TestWrapTagsKind(t *testing.T) {
	err := Wrap(ErrConflict, "jobs", "cancel", "job is SUCCEEDED", nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict kind, got %v", err)
	}
	if got := Code(err); got != CodeStateConflict {
		t.Fatalf("Code = %q, want %q", got, CodeStateConflict)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrStorage, "storage", "put", "upload failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not preserved: %v", err)
	}
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("marker not preserved: %v", err)
	}
}

func TestWithCodeOverridesDefault(t *testing.T) {
	err := WithCode(Wrap(ErrValidation, "api", "create", "bad extension", nil), CodeUnsupportedFormat)
	if got := Code(err); got != CodeUnsupportedFormat {
		t.Fatalf("Code = %q, want %q", got, CodeUnsupportedFormat)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("WithCode must not change kind")
	}
}

func TestCodeDefaults(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{Wrap(ErrValidation, "", "", "bad", nil), CodeValidation},
		{Wrap(ErrNotFound, "", "", "missing", nil), CodeJobNotFound},
		{Wrap(ErrSchemaInvalid, "", "", "steps", nil), CodeStepsSchemaInvalid},
		{Wrap(ErrFailedPrecondition, "", "", "no input", nil), CodeInputMissing},
		{Wrap(ErrDispatch, "", "", "enqueue", nil), CodeQueue},
		{errors.New("plain"), CodeInternal},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.want {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestMessageStripsMarker(t *testing.T) {
	err := Wrap(ErrNotFound, "jobs", "get", "job abc", nil)
	if got := Message(err); got != "jobs: get: job abc" {
		t.Fatalf("Message = %q", got)
	}
}
