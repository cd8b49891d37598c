package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nadmax/ganttline/internal/csvio"
	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/timeline"
)

type ReportConfig struct {
	OutputPath string
	Format     string
	Scale      timeline.Scale
	Buffer     timeline.Buffer
	Palette    timeline.Palette
}

type ReportGenerator struct {
	repo repository.TaskRepository
	cfg  ReportConfig
	now  func() time.Time
}

func NewReportGenerator(repo repository.TaskRepository, cfg ReportConfig) *ReportGenerator {
	if cfg.OutputPath == "" {
		cfg.OutputPath = "./reports"
	}
	if cfg.Format == "" {
		cfg.Format = "csv"
	}
	return &ReportGenerator{repo: repo, cfg: cfg, now: time.Now}
}

// Run lays out the current schedule and writes it to a timestamped file.
func (rg *ReportGenerator) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	tasks, err := rg.repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	now := rg.now()
	chart := timeline.Layout(tasks, timeline.Options{
		Scale:   rg.cfg.Scale,
		Buffer:  rg.cfg.Buffer,
		Palette: rg.cfg.Palette,
		Today:   now,
	})

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputFile, err := rg.saveReport(chart, now)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	logger.Info().
		Str("file", outputFile).
		Int("rows", chart.TaskCount).
		Int("skipped", len(chart.Skipped)).
		Msg("schedule report generated")
	return nil
}

func (rg *ReportGenerator) saveReport(chart timeline.Chart, now time.Time) (string, error) {
	if err := os.MkdirAll(rg.cfg.OutputPath, 0o755); err != nil {
		return "", err
	}

	timestamp := now.Format("20060102_150405")
	filename := fmt.Sprintf("ganttline_schedule_%s.%s", timestamp, rg.cfg.Format)
	fullPath := filepath.Join(rg.cfg.OutputPath, filename)

	switch rg.cfg.Format {
	case "csv":
		return fullPath, saveAsCSV(fullPath, chart, now)
	case "json":
		return fullPath, saveAsJSON(fullPath, chart, now)
	default:
		return "", fmt.Errorf("unsupported format: %s", rg.cfg.Format)
	}
}

func saveAsCSV(path string, chart timeline.Chart, today time.Time) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	return csvio.WriteSchedule(file, chart, today)
}

func saveAsJSON(path string, chart timeline.Chart, now time.Time) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]any{
		"generated_at": now.Format(time.RFC3339),
		"chart":        chart,
		"total_rows":   chart.TaskCount,
	})
}
