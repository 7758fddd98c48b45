// Package config loads, normalizes, and validates ManualStudio configuration
// from TOML with environment fallbacks for credentials.
package config
