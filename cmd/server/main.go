package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/feedrank/feedrank/internal/config"
	"github.com/feedrank/feedrank/internal/domain"
	"github.com/feedrank/feedrank/internal/feedcache"
	"github.com/feedrank/feedrank/internal/httpserver"
	"github.com/feedrank/feedrank/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config (defaults to CONFIG_PATH)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	repo, err := sqlite.NewRepository(cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()
	logger.Info("store ready", "dsn", cfg.DB.DSN)

	if cfg.DB.SeedFixtures {
		seeded, err := repo.SeedFixtures(context.Background())
		if err != nil {
			return fmt.Errorf("seed fixtures: %w", err)
		}
		if seeded {
			logger.Info("seeded fixture data")
		}
	}

	policy := domain.PolicyByName(cfg.Feed.Policy, cfg.Feed.Weights)
	cache := feedcache.New()
	feedService := domain.NewFeedService(repo, cache, policy, logger)
	feedService.SetDefaultBatchSize(cfg.Feed.BatchSize)
	logger.Info("feed service ready", "policy", policy.Name(), "batch_size", cfg.Feed.BatchSize)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	server := httpserver.NewServer(cfg, feedService, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
			cancel()
		}
	}()
	logger.Info("server started", "addr", cfg.HTTP.Addr())

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}
	return nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
