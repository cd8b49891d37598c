package main

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/task"
)

func TestUpdateTaskMetrics(t *testing.T) {
	repo := repository.NewMockTaskRepository(
		task.Task{ID: "a", Stage: "Collector", Milestone: "Old", StartDate: "2000-01-01", EndDate: "2000-01-02"},
		task.Task{ID: "b", Stage: "Collector", Milestone: "Done", StartDate: "2000-01-01", EndDate: "2000-01-02", Completed: true},
	)

	updateTaskMetrics(context.Background(), repo)

	assert.Equal(t, float64(1), metricValue(t, metrics.TasksTracked.WithLabelValues("Collector", metrics.StateOpen)))
	assert.Equal(t, float64(1), metricValue(t, metrics.TasksTracked.WithLabelValues("Collector", metrics.StateCompleted)))
	assert.Equal(t, float64(1), metricValue(t, metrics.TasksOverdue))
}

func TestUpdateTaskMetrics_ListError(t *testing.T) {
	repo := repository.NewMockTaskRepository()
	repo.ListError = errors.New("db down")

	updateTaskMetrics(context.Background(), repo)

	assert.Equal(t, 1, repo.ListCalls)
}

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}
