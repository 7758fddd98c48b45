package main

import (
	"context"
	"strings"
	"sync"

	"manualstudio/internal/api"
	"manualstudio/internal/config"
	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withService opens the shared stores for one command invocation. The
// serve daemon picks up anything a one-shot command leaves QUEUED in the
// jobs database.
func (c *commandContext) withService(cmdCtx context.Context, fn func(context.Context, *api.JobService) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: "warn", Format: "console"})
	if err != nil {
		return err
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	artifacts, err := storage.NewFromConfig(cmdCtx, cfg, logger)
	if err != nil {
		return err
	}

	queue := dispatch.NewInMemoryQueue(cfg.Workflow.QueueDepth)
	service := api.NewJobService(cfg, store, artifacts, queue, logger, nil)
	return fn(cmdCtx, service)
}
