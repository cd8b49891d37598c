// Package metrics provides Prometheus metrics for the ganttline server and worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TaskMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ganttline_task_mutations_total",
			Help: "Total number of task create, update and delete operations",
		},
		[]string{"operation"},
	)
	TasksTracked = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ganttline_tasks",
			Help: "Current number of tasks by stage and state",
		},
		[]string{"stage", "state"},
	)
	TasksOverdue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ganttline_tasks_overdue",
			Help: "Current number of incomplete tasks whose end date has passed",
		},
	)
	LayoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ganttline_layout_duration_seconds",
			Help:    "Time spent computing a timeline layout",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"format"},
	)
	LayoutSkippedTasks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ganttline_layout_skipped_tasks_total",
			Help: "Total number of tasks left out of a layout for missing or malformed dates",
		},
	)
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ganttline_cache_requests_total",
			Help: "Total number of task cache lookups by result",
		},
		[]string{"operation", "result"},
	)
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ganttline_job_runs_total",
			Help: "Total number of background job runs",
		},
		[]string{"job", "status"},
	)
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ganttline_job_duration_seconds",
			Help:    "Background job duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"job"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ganttline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ganttline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// Task states used as the "state" label of TasksTracked.
const (
	StateOpen      = "open"
	StateCompleted = "completed"
)

func RecordTaskMutation(operation string) {
	TaskMutations.WithLabelValues(operation).Inc()
}

// UpdateTaskGauges replaces the per-stage gauges with the given counts,
// keyed by stage then state.
func UpdateTaskGauges(tasksByStage map[string]map[string]int, overdue int) {
	TasksTracked.Reset()
	for stage, states := range tasksByStage {
		for state, count := range states {
			TasksTracked.WithLabelValues(stage, state).Set(float64(count))
		}
	}
	TasksOverdue.Set(float64(overdue))
}

func RecordLayout(format string, duration time.Duration, skipped int) {
	LayoutDuration.WithLabelValues(format).Observe(duration.Seconds())
	if skipped > 0 {
		LayoutSkippedTasks.Add(float64(skipped))
	}
}

func RecordCacheHit(operation string) {
	CacheRequests.WithLabelValues(operation, "hit").Inc()
}

func RecordCacheMiss(operation string) {
	CacheRequests.WithLabelValues(operation, "miss").Inc()
}

func RecordCacheError(operation string) {
	CacheRequests.WithLabelValues(operation, "error").Inc()
}

func RecordJobRun(job string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	JobRuns.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
