package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/config"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/core"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/logging"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/photostore/gcs"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/web"
)

func main() {
	// Load .env if present (Overload overwrites existing env vars).
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"import_mode", cfg.Import.Mode,
		"bucket", cfg.Storage.Bucket,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	if err := store.Migrate(cfg.Database.URL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	objects, err := gcs.New(ctx)
	if err != nil {
		slog.Error("failed to create object-storage client", "error", err)
		os.Exit(1)
	}
	defer objects.Close()

	service, err := core.NewService(
		store.NewDocumentStore(pool),
		store.NewItemStore(pool),
		store.NewPhotoStore(pool),
		objects,
		cfg,
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
