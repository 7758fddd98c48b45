package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"manualstudio/internal/config"
)

// ErrObjectNotFound reports a missing key. Both backends return it so
// callers can distinguish absence from transport failure.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// PresignOptions shape the download URL handed back to clients.
type PresignOptions struct {
	// TTL bounds how long the URL stays valid. Zero uses the configured
	// default.
	TTL time.Duration
	// ContentType overrides the response Content-Type header.
	ContentType string
	// Disposition sets the response Content-Disposition header, typically
	// built with ContentDisposition().
	Disposition string
}

// ArtifactStore is the persistence port for job artifacts.
type ArtifactStore interface {
	// Put stores an object and returns its URI.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Get opens an object for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Presign returns a time-limited download URL for an object.
	Presign(ctx context.Context, key string, opts PresignOptions) (string, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns objects under a key prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// URI renders the canonical URI for a key without touching the backend.
	URI(key string) string
}

// NewFromConfig selects and constructs the backend named in configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ArtifactStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		return newS3Store(ctx, cfg, logger)
	case config.BackendLocal:
		return newLocalStore(cfg, logger)
	default:
		return nil, fmt.Errorf("storage backend %q is not supported", cfg.Storage.Backend)
	}
}
