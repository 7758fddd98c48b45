package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"manualstudio/internal/dispatch"
	"manualstudio/internal/jobs"
	"manualstudio/internal/logging"
	"manualstudio/internal/metrics"
	"manualstudio/internal/pipeline"
	"manualstudio/internal/storage"
)

func newServeCommand(cctx *commandContext) *cobra.Command {
	var scanInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion worker daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lockPath := filepath.Join(cfg.Paths.LogDir, "manualstudio.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire daemon lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another instance holds %s", lockPath)
			}
			defer lock.Unlock() //nolint:errcheck

			store, err := jobs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}
			defer store.Close()

			artifacts, err := storage.NewFromConfig(signalCtx, cfg, logger)
			if err != nil {
				return fmt.Errorf("open artifact store: %w", err)
			}

			providers, err := pipeline.NewProviders(cfg)
			if err != nil {
				return fmt.Errorf("resolve providers: %w", err)
			}

			queue := dispatch.NewInMemoryQueue(cfg.Workflow.QueueDepth)
			defer queue.Close()
			recorder := metrics.New()
			worker := pipeline.NewWorker(cfg, store, artifacts, queue, providers, logger, recorder)

			go worker.RunScanner(signalCtx, scanInterval, scanInterval)

			logger.Info("worker daemon started",
				logging.Int("workers", cfg.Workflow.WorkerCount),
				logging.String("db", store.Path()),
				logging.String("storage", cfg.Storage.Backend))

			worker.RunPool(signalCtx)
			logger.Info("worker daemon stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&scanInterval, "scan-interval", 15*time.Second, "How often to re-dispatch waiting jobs from the database")
	return cmd
}
