// Package pipeline runs the video-to-manual conversion stages.
//
// A Worker consumes dispatch tasks and drives each job through ingest,
// audio extraction, transcription, scene detection, frame extraction, step
// generation, and slide rendering, reporting progress checkpoints through
// the job store's compare-and-swap transitions. Cancelation is cooperative:
// a canceled job makes the next progress report fail with Conflict and the
// worker abandons the run without touching the row.
package pipeline
