package api

import (
	"context"
	"errors"
	"path"
	"strings"

	"manualstudio/internal/services"
	"manualstudio/internal/storage"
)

const slidesContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// DownloadSlidesURL mints a time-limited URL for the rendered deck. The
// attachment name carries the job title when one is set.
func (s *JobService) DownloadSlidesURL(ctx context.Context, jobID string) (string, error) {
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.SlidesURI == "" {
		return "", services.Wrap(services.ErrNotFound, "api", "download slides",
			"job has no rendered deck", nil)
	}

	name := "manual.pptx"
	if title := strings.TrimSpace(job.Title); title != "" {
		name = title + ".pptx"
	}
	return s.artifacts.Presign(ctx, storage.KeyFromURI(job.SlidesURI), storage.PresignOptions{
		ContentType: slidesContentType,
		Disposition: storage.ContentDisposition(name),
	})
}

// DownloadFramesZipURL mints a URL for the frames archive, assembling it
// on first request and reusing the stored copy afterwards.
func (s *JobService) DownloadFramesZipURL(ctx context.Context, jobID string) (string, error) {
	if _, err := s.store.GetByID(ctx, jobID); err != nil {
		return "", err
	}

	zipKey := storage.FramesZipKey(jobID)
	exists, err := s.artifacts.Exists(ctx, zipKey)
	if err != nil {
		return "", err
	}
	if !exists {
		if _, err := storage.BuildFramesZip(ctx, s.artifacts, jobID); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return "", services.Wrap(services.ErrNotFound, "api", "download frames",
					"job has no extracted frames", err)
			}
			return "", err
		}
	}

	return s.artifacts.Presign(ctx, zipKey, storage.PresignOptions{
		ContentType: "application/zip",
		Disposition: storage.ContentDisposition("frames.zip"),
	})
}

// FrameURL mints a URL for one extracted frame image.
func (s *JobService) FrameURL(ctx context.Context, jobID, fileName string) (string, error) {
	if _, err := s.store.GetByID(ctx, jobID); err != nil {
		return "", err
	}

	key := storage.FrameKey(jobID, fileName)
	exists, err := s.artifacts.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", services.Wrap(services.ErrNotFound, "api", "frame url", fileName, nil)
	}

	return s.artifacts.Presign(ctx, key, storage.PresignOptions{
		ContentType: frameContentType(fileName),
	})
}

func frameContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
