package main

import (
	"context"
	"time"

	"github.com/nadmax/ganttline/internal/dashboard"
	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/nadmax/ganttline/internal/repository"
)

func startMetricsCollector(ctx context.Context, repo repository.TaskRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	updateTaskMetrics(ctx, repo)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateTaskMetrics(ctx, repo)
		}
	}
}

func updateTaskMetrics(ctx context.Context, repo repository.TaskRepository) {
	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		logger := logging.Component("metrics")
		logger.Warn().Err(err).Msg("failed to get tasks for metrics")
		return
	}

	byStage, overdue := dashboard.StageStates(tasks, time.Now())
	metrics.UpdateTaskGauges(byStage, overdue)
}
