package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrSchemaInvalid      = errors.New("schema invalid")
	ErrFailedPrecondition = errors.New("failed precondition")
	ErrStorage            = errors.New("storage error")
	ErrDispatch           = errors.New("dispatch error")
	ErrTransient          = errors.New("transient failure")
)

// Stable categorical codes surfaced alongside errors. These match the codes
// persisted in job error_code columns, so they must not be renamed.
const (
	CodeInternal           = "INTERNAL_ERROR"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeVideoTooLarge      = "VIDEO_TOO_LARGE"
	CodeVideoTooLong       = "VIDEO_TOO_LONG"
	CodeJobNotFound        = "JOB_NOT_FOUND"
	CodeStepsNotFound      = "STEPS_NOT_FOUND"
	CodeStateConflict      = "JOB_STATE_CONFLICT"
	CodeStepsSchemaInvalid = "STEPS_SCHEMA_INVALID"
	CodeInputMissing       = "INPUT_MISSING"
	CodeStorage            = "STORAGE_ERROR"
	CodeStorageUpload      = "STORAGE_UPLOAD_FAILED"
	CodeQueue              = "QUEUE_ERROR"
	CodeTranscribeFailed   = "TRANSCRIBE_FAILED"
	CodeLLMFailed          = "LLM_FAILED"
	CodeLLMSchemaInvalid   = "LLM_SCHEMA_INVALID"
	CodeSlidesFailed       = "PPTX_FAILED"
	CodeFFmpegFailed       = "FFMPEG_FAILED"
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

type codedError struct {
	err  error
	code string
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

// WithCode attaches a categorical code to an error without changing its kind.
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &codedError{err: err, code: code}
}

// Code returns the categorical code for an error: an explicitly attached code
// when present, otherwise the default code for the error's sentinel kind.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeJobNotFound
	case errors.Is(err, ErrConflict):
		return CodeStateConflict
	case errors.Is(err, ErrSchemaInvalid):
		return CodeStepsSchemaInvalid
	case errors.Is(err, ErrFailedPrecondition):
		return CodeInputMissing
	case errors.Is(err, ErrStorage):
		return CodeStorage
	case errors.Is(err, ErrDispatch):
		return CodeQueue
	default:
		return CodeInternal
	}
}

// Message strips the sentinel prefix from a wrapped error, leaving the
// human-readable detail.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrValidation, ErrNotFound, ErrConflict, ErrSchemaInvalid,
		ErrFailedPrecondition, ErrStorage, ErrDispatch, ErrTransient,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
