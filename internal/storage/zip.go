package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"manualstudio/internal/services"
)

// BuildFramesZip archives every frame image under the job's frames prefix
// into frames.zip and stores it alongside the other artifacts. Returns the
// zip's URI. Errors with ErrObjectNotFound when the job has no frames.
func BuildFramesZip(ctx context.Context, store ArtifactStore, jobID string) (string, error) {
	objects, err := store.List(ctx, FramesPrefix(jobID))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	count := 0
	for _, obj := range objects {
		name := path.Base(obj.Key)
		if !strings.HasSuffix(name, ".png") && !strings.HasSuffix(name, ".jpg") {
			continue
		}
		if err := addZipEntry(ctx, writer, store, obj.Key, name); err != nil {
			writer.Close()
			return "", err
		}
		count++
	}
	if count == 0 {
		writer.Close()
		return "", ErrObjectNotFound
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "zip", "finalize archive", err)
	}

	return store.Put(ctx, FramesZipKey(jobID), &buf, "application/zip")
}

func addZipEntry(ctx context.Context, writer *zip.Writer, store ArtifactStore, key, name string) error {
	body, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	entry, err := writer.Create(name)
	if err != nil {
		return services.Wrap(services.ErrStorage, "storage", "zip", key, err)
	}
	if _, err := io.Copy(entry, body); err != nil {
		return services.Wrap(services.ErrStorage, "storage", "zip", key, err)
	}
	return nil
}
