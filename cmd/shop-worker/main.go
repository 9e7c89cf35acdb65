package main

import (
	"context"
	"errors"
	"os"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"shop/internal/backend"
	"shop/internal/cli"
	"shop/internal/log"
	"shop/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info", "text"))
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentWorker)

	logger.Info("Starting shop-worker", log.FieldOperation, log.OpStartup)

	ctx, stop := cli.SignalContext()
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	export, err := backend.NewFactory(logger.Logger).CreateWriter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize export backend", "backend", backendCfg.Type, log.FieldError, err)
		os.Exit(1)
	}

	journalWorker := worker.NewJournalWorker(repo, export.Writer, cfg.SyncBatchSize)

	// On startup, export any entries that might have been missed
	if err := journalWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SyncSchedule, func() {
		n, err := journalWorker.ProcessPending(ctx)
		if err != nil {
			logger.Error("Periodic sync failed", log.FieldError, err, log.FieldOperation, log.OpSync)
			return
		}
		if n > 0 {
			logger.Info("Periodic sync exported entries", "count", n, log.FieldOperation, log.OpSync)
		}
	}); err != nil {
		logger.Error("Invalid sync schedule", "schedule", cfg.SyncSchedule, log.FieldError, err)
		os.Exit(1)
	}
	scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)
	if client := cli.ConnectAMQP(ctx, cfg); client != nil {
		defer client.Close()
		g.Go(func() error {
			err := client.ConsumeJournalEvents(gctx, journalWorker.HandleJournalEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP consumption - relying on scheduled sync", "schedule", cfg.SyncSchedule)
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	logger.Info("Shutting down worker...", log.FieldOperation, log.OpShutdown)
	<-scheduler.Stop().Done()
	logger.Info("Worker shutdown complete")
}
