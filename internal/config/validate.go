package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendS3:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket must be set")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return errors.New("storage.access_key and storage.secret_key are required for the s3 backend (or set MANUALSTUDIO_S3_ACCESS_KEY / MANUALSTUDIO_S3_SECRET_KEY)")
		}
	case BackendLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir must be set for the local backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendS3, BackendLocal, c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateProviders() error {
	known := map[string]struct{}{"mock": {}, "openai": {}, "anthropic": {}}
	if _, ok := known[c.Providers.Transcriber]; !ok {
		return fmt.Errorf("providers.transcriber: unknown backend %q", c.Providers.Transcriber)
	}
	if _, ok := known[c.Providers.StepGenerator]; !ok {
		return fmt.Errorf("providers.step_generator: unknown backend %q", c.Providers.StepGenerator)
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxVideoMinutes <= 0 {
		return errors.New("limits.max_video_minutes must be positive")
	}
	if c.Limits.MaxVideoSizeMB <= 0 {
		return errors.New("limits.max_video_size_mb must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}
