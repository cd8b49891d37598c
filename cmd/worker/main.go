package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nadmax/ganttline/internal/cache"
	"github.com/nadmax/ganttline/internal/config"
	"github.com/nadmax/ganttline/internal/gcal"
	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/render"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/worker"
	"github.com/nadmax/ganttline/internal/worker/handlers"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "config file (default: search ganttline.yaml)")
	once := pflag.Bool("once", false, "run every job once and exit")
	job := pflag.String("job", "", "run only this job once and exit")
	pflag.Parse()

	if err := run(*configPath, *once, *job); err != nil {
		logging.Logger.Fatal().Err(err).Msg("worker failed")
	}
}

func run(configPath string, once bool, job string) error {
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
	logger := logging.Component("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	if cfg.Cache.RedisAddr != "" {
		cached, err := cache.NewRepository(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL, repo)
		if err != nil {
			_ = repo.Close()
			return err
		}
		repo = cached
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close repository")
		}
	}()

	workerID := os.Getenv("WORKER_ID")
	if workerID == "" {
		host, _ := os.Hostname()
		workerID = fmt.Sprintf("%s-%d", host, time.Now().Unix())
	}

	w := worker.NewWorker(workerID, cfg.Worker.Interval)
	if err := registerJobs(ctx, w, cfg, repo); err != nil {
		return err
	}
	if len(w.Jobs()) == 0 {
		logger.Warn().Msg("no jobs configured, set notify, calendar or worker.report_dir")
		return nil
	}

	switch {
	case job != "":
		return w.RunJob(ctx, job)
	case once:
		return w.RunOnce(ctx)
	}

	w.Start(ctx)
	return nil
}

func registerJobs(ctx context.Context, w *worker.Worker, cfg *config.Config, repo repository.TaskRepository) error {
	logger := logging.Component("worker")

	if cfg.NotifyEnabled() {
		digest := handlers.NewDigestJob(repo, handlers.NewSendGridSender(cfg.Notify.SendgridAPIKey), handlers.DigestConfig{
			FromName:    cfg.Notify.FromName,
			FromAddress: cfg.Notify.FromAddress,
			Recipients:  cfg.Notify.Recipients,
			HorizonDays: cfg.Notify.HorizonDays,
		})
		w.RegisterJob("deadline_digest", digest.Run)
	}

	if cfg.CalendarEnabled() {
		srv, err := gcal.NewService(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile)
		if err != nil {
			return fmt.Errorf("calendar sync: %w", err)
		}
		exporter := gcal.NewExporter(srv, cfg.Calendar.CalendarID)
		w.RegisterJob("calendar_sync", handlers.NewCalendarJob(repo, exporter).Run)
	}

	if cfg.Worker.ReportDir != "" {
		style, err := render.LoadStyle(cfg.Timeline.PaletteFile)
		if err != nil {
			return err
		}
		report := handlers.NewReportGenerator(repo, handlers.ReportConfig{
			OutputPath: cfg.Worker.ReportDir,
			Format:     "csv",
			Scale:      cfg.Scale(),
			Buffer:     cfg.Buffer(),
			Palette:    style.Palette,
		})
		w.RegisterJob("schedule_report", report.Run)
	}

	logger.Info().Strs("jobs", w.Jobs()).Msg("jobs registered")
	return nil
}
