// Package logging builds slog loggers with console and JSON handlers plus
// standardized structured-field helpers shared across the job core.
package logging
