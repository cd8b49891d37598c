package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTaskMutation(t *testing.T) {
	TaskMutations.Reset()

	tests := []struct {
		name      string
		operation string
		times     int
	}{
		{name: "create", operation: "create", times: 3},
		{name: "update", operation: "update", times: 1},
		{name: "delete", operation: "delete", times: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range tt.times {
				RecordTaskMutation(tt.operation)
			}

			assert.Equal(t, float64(tt.times), getCounterValue(t, TaskMutations, tt.operation))
		})
	}
}

func TestUpdateTaskGauges(t *testing.T) {
	TasksTracked.Reset()

	UpdateTaskGauges(map[string]map[string]int{
		"Design": {StateOpen: 2, StateCompleted: 1},
		"Build":  {StateOpen: 4},
	}, 3)

	assert.Equal(t, 2.0, getGaugeValue(t, TasksTracked, "Design", StateOpen))
	assert.Equal(t, 1.0, getGaugeValue(t, TasksTracked, "Design", StateCompleted))
	assert.Equal(t, 4.0, getGaugeValue(t, TasksTracked, "Build", StateOpen))
	assert.Equal(t, 3.0, gaugeValue(t, TasksOverdue))

	t.Run("reset drops stale stages", func(t *testing.T) {
		UpdateTaskGauges(map[string]map[string]int{"Build": {StateOpen: 1}}, 0)

		count := testCollectCount(TasksTracked)
		assert.Equal(t, 1, count)
		assert.Equal(t, 0.0, gaugeValue(t, TasksOverdue))
	})
}

func TestRecordLayout(t *testing.T) {
	LayoutDuration.Reset()
	before := counterValue(t, LayoutSkippedTasks)

	RecordLayout("svg", 20*time.Millisecond, 2)
	RecordLayout("json", 5*time.Millisecond, 0)

	assert.InDelta(t, 0.02, getHistogramSum(t, LayoutDuration, "svg"), 1e-9)
	assert.Equal(t, uint64(1), getHistogramMetric(t, LayoutDuration, "json").Histogram.GetSampleCount())
	assert.Equal(t, before+2, counterValue(t, LayoutSkippedTasks))
}

func TestRecordCache(t *testing.T) {
	CacheRequests.Reset()

	RecordCacheHit("list")
	RecordCacheHit("list")
	RecordCacheMiss("get")
	RecordCacheError("get")

	assert.Equal(t, 2.0, getCounterValue(t, CacheRequests, "list", "hit"))
	assert.Equal(t, 1.0, getCounterValue(t, CacheRequests, "get", "miss"))
	assert.Equal(t, 1.0, getCounterValue(t, CacheRequests, "get", "error"))
}

func TestRecordJobRun(t *testing.T) {
	JobRuns.Reset()
	JobDuration.Reset()

	RecordJobRun("schedule_report", time.Second, nil)
	RecordJobRun("schedule_report", 2*time.Second, errors.New("disk full"))

	assert.Equal(t, 1.0, getCounterValue(t, JobRuns, "schedule_report", "success"))
	assert.Equal(t, 1.0, getCounterValue(t, JobRuns, "schedule_report", "failed"))
	assert.InDelta(t, 3.0, getHistogramSum(t, JobDuration, "schedule_report"), 1e-9)
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/api/tasks", "200", 100*time.Millisecond)
	RecordHTTPRequest("GET", "/api/tasks", "200", 50*time.Millisecond)

	assert.Equal(t, 2.0, getCounterValue(t, HTTPRequestsTotal, "GET", "/api/tasks", "200"))
	assert.InDelta(t, 0.15, getHistogramSum(t, HTTPRequestDuration, "GET", "/api/tasks"), 1e-9)
}

func getCounterValue(t *testing.T, counter *prometheus.CounterVec, labels ...string) float64 {
	observer, err := counter.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	return counterValue(t, observer)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	return metric.Counter.GetValue()
}

func getGaugeValue(t *testing.T, gauge *prometheus.GaugeVec, labels ...string) float64 {
	observer, err := gauge.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	return gaugeValue(t, observer)
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	metric := &dto.Metric{}
	require.NoError(t, g.Write(metric))
	return metric.Gauge.GetValue()
}

func getHistogramSum(t *testing.T, histogram *prometheus.HistogramVec, labels ...string) float64 {
	metric := getHistogramMetric(t, histogram, labels...)
	return metric.Histogram.GetSampleSum()
}

func getHistogramMetric(t *testing.T, histogram *prometheus.HistogramVec, labels ...string) *dto.Metric {
	metric := &dto.Metric{}
	observer, err := histogram.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)

	h := observer.(prometheus.Histogram)
	require.NoError(t, h.Write(metric))
	return metric
}

func testCollectCount(c prometheus.Collector) int {
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)
	return len(ch)
}
