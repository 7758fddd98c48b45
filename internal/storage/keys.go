package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Per-job key layout. Everything a job produces lives under jobs/{job_id}/.

// InputKey is where the uploaded source video is stored. ext includes the
// leading dot.
func InputKey(jobID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("jobs/%s/input%s", jobID, strings.ToLower(ext))
}

// AudioKey is the extracted audio track.
func AudioKey(jobID string) string {
	return fmt.Sprintf("jobs/%s/audio.wav", jobID)
}

// TranscriptKey is the raw transcription result.
func TranscriptKey(jobID string) string {
	return fmt.Sprintf("jobs/%s/transcript.json", jobID)
}

// StepsKey is the versioned step document. Versions start at 1.
func StepsKey(jobID string, version int) string {
	return fmt.Sprintf("jobs/%s/steps_v%d.json", jobID, version)
}

// SlidesKey is the rendered slide deck.
func SlidesKey(jobID string) string {
	return fmt.Sprintf("jobs/%s/manual.pptx", jobID)
}

// FramesPrefix is the prefix under which extracted frames are stored.
func FramesPrefix(jobID string) string {
	return fmt.Sprintf("jobs/%s/frames/", jobID)
}

// FrameKey is one extracted frame by file name.
func FrameKey(jobID, fileName string) string {
	return FramesPrefix(jobID) + path.Base(fileName)
}

// FramesZipKey is the on-demand archive of all frames.
func FramesZipKey(jobID string) string {
	return fmt.Sprintf("jobs/%s/frames.zip", jobID)
}

// JobPrefix covers every object a job owns.
func JobPrefix(jobID string) string {
	return fmt.Sprintf("jobs/%s/", jobID)
}

// URIFor renders the canonical s3://bucket/key URI for an object.
func URIFor(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// KeyFromURI extracts the object key from an s3://bucket/key URI. Bare keys
// pass through unchanged so stored values from either form resolve.
func KeyFromURI(uri string) string {
	if rest, ok := strings.CutPrefix(uri, "s3://"); ok {
		if _, key, found := strings.Cut(rest, "/"); found {
			return key
		}
		return ""
	}
	return uri
}

// ContentDisposition builds an attachment header carrying the download file
// name. Non-ASCII names get the RFC 5987 filename* form alongside an ASCII
// fallback so every client renders something sensible.
func ContentDisposition(fileName string) string {
	ascii := make([]byte, 0, len(fileName))
	needsEncoding := false
	for _, r := range fileName {
		if r > 0x20 && r < 0x7f && r != '"' && r != '\\' {
			ascii = append(ascii, byte(r))
		} else {
			needsEncoding = true
			ascii = append(ascii, '_')
		}
	}
	if !needsEncoding {
		return fmt.Sprintf("attachment; filename=%q", fileName)
	}
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s",
		string(ascii), url.PathEscape(fileName))
}
