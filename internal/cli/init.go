// Package cli holds the start-up steps shared by cmd/shop and
// cmd/shop-worker.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shop/internal/amqp"
	"shop/internal/config"
	"shop/internal/log"
	"shop/internal/storage"
)

// LoadEnvFile loads .env (or the given files) for local development.
// Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// SetupLogger installs the process-wide logger. Unknown levels fall back
// to info; config validation reports them.
func SetupLogger(level, format string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	if format != "" {
		cfg.Format = format
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and exits on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens and migrates the database, exiting on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// ConnectAMQP returns nil when AMQP is not configured or unreachable;
// callers then run without journal events.
func ConnectAMQP(ctx context.Context, cfg *config.Config) *amqp.Client {
	if !cfg.AMQPEnabled() {
		slog.InfoContext(ctx, "AMQP not configured, journal events disabled", log.FieldComponent, log.ComponentAMQP)
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.WarnContext(ctx, "AMQP unavailable, journal events disabled", log.FieldComponent, log.ComponentAMQP, log.FieldError, err)
		return nil
	}
	slog.InfoContext(ctx, "AMQP connected", log.FieldComponent, log.ComponentAMQP,
		"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
