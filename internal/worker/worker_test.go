package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorker(t *testing.T) {
	w := NewWorker("test-worker", time.Minute)

	assert.NotNil(t, w)
	assert.Equal(t, "test-worker", w.id)
	assert.Empty(t, w.jobs)
	assert.NotNil(t, w.stop)
}

func TestRegisterJob(t *testing.T) {
	w := NewWorker("test-worker", time.Minute)

	w.RegisterJob("first", func(context.Context) error { return nil })
	w.RegisterJob("second", func(context.Context) error { return nil })

	assert.Equal(t, []string{"first", "second"}, w.Jobs())
}

func TestRunOnce_RunsAllJobsInOrder(t *testing.T) {
	w := NewWorker("test-worker", time.Minute)
	var order []string

	w.RegisterJob("a", func(context.Context) error { order = append(order, "a"); return nil })
	w.RegisterJob("b", func(context.Context) error { order = append(order, "b"); return errors.New("boom") })
	w.RegisterJob("c", func(context.Context) error { order = append(order, "c"); return nil })

	err := w.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: boom")
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRunOnce_RecordsMetrics(t *testing.T) {
	w := NewWorker("test-worker", time.Minute)
	w.RegisterJob("metrics_ok", func(context.Context) error { return nil })
	w.RegisterJob("metrics_fail", func(context.Context) error { return errors.New("nope") })

	okBefore := metricValue(t, metrics.JobRuns.WithLabelValues("metrics_ok", "success"))
	failBefore := metricValue(t, metrics.JobRuns.WithLabelValues("metrics_fail", "failed"))

	_ = w.RunOnce(context.Background())

	assert.Equal(t, okBefore+1, metricValue(t, metrics.JobRuns.WithLabelValues("metrics_ok", "success")))
	assert.Equal(t, failBefore+1, metricValue(t, metrics.JobRuns.WithLabelValues("metrics_fail", "failed")))
}

func TestRunJob_RecoversPanic(t *testing.T) {
	w := NewWorker("test-worker", time.Minute)
	w.RegisterJob("explode", func(context.Context) error { panic("kaboom") })

	err := w.RunJob(context.Background(), "explode")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRunJob_Unknown(t *testing.T) {
	w := NewWorker("test-worker", time.Minute)

	err := w.RunJob(context.Background(), "missing")

	assert.Error(t, err)
}

func TestRunOnce_StopsOnCancelledContext(t *testing.T) {
	w := NewWorker("test-worker", time.Minute)
	ran := false
	w.RegisterJob("never", func(context.Context) error { ran = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.RunOnce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestStart_TicksUntilStopped(t *testing.T) {
	w := NewWorker("test-worker", 10*time.Millisecond)
	var runs atomic.Int32
	w.RegisterJob("tick", func(context.Context) error {
		runs.Add(1)
		return nil
	})

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	w := NewWorker("test-worker", time.Hour)
	var runs atomic.Int32
	w.RegisterJob("once", func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
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
