// Package api implements the job service operations: creating and
// querying jobs, driving lifecycle transitions, editing step documents,
// and minting download URLs. Transports and the CLI call into this
// package; it owns the compensation logic around storage and dispatch.
package api
