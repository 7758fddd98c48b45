// Package steps defines the structured manual document produced by step
// generation and the schema validation applied before any version is stored.
package steps
