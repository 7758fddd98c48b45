// Package services defines the shared error taxonomy and request-scoped
// context annotations used across the job core. Errors are classified with
// sentinel markers wrapped via %w so callers can branch on kind with
// errors.Is, and carry stable categorical codes for the transport boundary.
package services
