package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"shop/internal/cache"
	"shop/internal/cli"
	"shop/internal/core"
	apphttp "shop/internal/http"
	"shop/internal/log"
	"shop/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info", "text"))
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentApp)

	logger.Info("Starting shop server", "port", cfg.Port, log.FieldOperation, log.OpStartup)

	ctx, stop := cli.SignalContext()
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// CATALOG_CACHE_TTL=0 reads the catalog straight from SQLite.
	var catalog services.Catalog = repo
	if cfg.CatalogCacheTTL > 0 {
		cached := cache.NewCatalog(repo, cfg.CatalogCacheTTL)
		janitor := cache.NewJanitor(cached.Cleaners()...)
		janitor.Start(cfg.CatalogCacheTTL)
		defer janitor.Stop()
		catalog = cached
	}

	var publisher services.EventPublisher
	if client := cli.ConnectAMQP(ctx, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	svc := services.NewShopService(catalog, repo, repo, publisher, cfg.InitialBalance)
	if err := svc.Bootstrap(ctx, core.SeedProducts()); err != nil {
		logger.Error("Failed to bootstrap shop", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		Pinger:             repo,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
