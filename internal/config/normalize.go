package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.DefaultLanguage))
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = defaultLanguage
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("MANUALSTUDIO_S3_ACCESS_KEY"); ok {
			c.Storage.AccessKey = value
		}
	}
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("MANUALSTUDIO_S3_SECRET_KEY"); ok {
			c.Storage.SecretKey = value
		}
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultStorageBucket
	}
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	if c.Storage.Region == "" {
		c.Storage.Region = defaultStorageRegion
	}
	if c.Storage.PresignTTLSeconds <= 0 {
		c.Storage.PresignTTLSeconds = defaultPresignTTLSeconds
	}
	if c.Storage.Backend == BackendLocal {
		var err error
		if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
			return fmt.Errorf("storage.local_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeProviders() {
	c.Providers.Transcriber = strings.ToLower(strings.TrimSpace(c.Providers.Transcriber))
	if c.Providers.Transcriber == "" {
		c.Providers.Transcriber = defaultTranscriber
	}
	c.Providers.StepGenerator = strings.ToLower(strings.TrimSpace(c.Providers.StepGenerator))
	if c.Providers.StepGenerator == "" {
		c.Providers.StepGenerator = defaultStepGenerator
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.WorkerCount <= 0 {
		c.Workflow.WorkerCount = defaultWorkerCount
	}
	if c.Workflow.QueueDepth <= 0 {
		c.Workflow.QueueDepth = defaultQueueDepth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
