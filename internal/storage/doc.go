// Package storage provides the artifact store backing job inputs, frames,
// step documents, and rendered slide decks.
//
// Two backends exist: an S3-compatible object store (MinIO in development)
// and a directory-rooted local store used by tests and single-machine runs.
// Keys follow a fixed per-job layout under jobs/{job_id}/ and artifacts are
// referenced everywhere else by s3://bucket/key style URIs.
package storage
