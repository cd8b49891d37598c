package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nadmax/ganttline/internal/api"
	"github.com/nadmax/ganttline/internal/cache"
	"github.com/nadmax/ganttline/internal/config"
	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/middleware"
	"github.com/nadmax/ganttline/internal/render"
	"github.com/nadmax/ganttline/internal/repository"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "config file (default: search ganttline.yaml)")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		logging.Logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(configPath string) error {
	loader := config.NewLoader()
	if configPath != "" {
		loader.SetConfigFile(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("server")
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Info().Str("file", used).Msg("loaded config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close repository")
		}
	}()

	style, err := render.LoadStyle(cfg.Timeline.PaletteFile)
	if err != nil {
		return err
	}

	apiHandler, err := api.NewAPI(repo, api.Options{
		Scale:     cfg.Scale(),
		Buffer:    cfg.Buffer(),
		Style:     style,
		StaticDir: cfg.Server.StaticDir,
		Now:       time.Now,
	})
	if err != nil {
		return err
	}

	go startMetricsCollector(ctx, repo, 15*time.Second)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           middleware.Chain(apiHandler, middleware.LoggingMiddleware, middleware.MetricsMiddleware),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("storage", cfg.Storage.Driver).
			Bool("cache", cfg.Cache.RedisAddr != "").
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openRepository opens the configured store and puts the Redis cache in front when configured.
func openRepository(ctx context.Context, cfg *config.Config) (repository.TaskRepository, error) {
	repo, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	if cfg.Cache.RedisAddr == "" {
		return repo, nil
	}

	cached, err := cache.NewRepository(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL, repo)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	return cached, nil
}
