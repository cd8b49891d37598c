// Package worker runs the periodic background jobs: the deadline digest,
// the calendar sync and the schedule report.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/rs/zerolog"
)

type Job func(ctx context.Context) error

type namedJob struct {
	name string
	run  Job
}

type Worker struct {
	id       string
	jobs     []namedJob
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

func NewWorker(id string, interval time.Duration) *Worker {
	return &Worker{
		id:       id,
		interval: interval,
		stop:     make(chan struct{}),
		logger:   logging.Component("worker").With().Str("worker_id", id).Logger(),
	}
}

// RegisterJob adds a job. Jobs run in registration order on every tick.
func (w *Worker) RegisterJob(name string, job Job) {
	w.jobs = append(w.jobs, namedJob{name: name, run: job})
}

func (w *Worker) Jobs() []string {
	names := make([]string, len(w.jobs))
	for i, j := range w.jobs {
		names[i] = j.name
	}
	return names
}

// Start runs every job once, then again on each interval tick, until ctx is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Strs("jobs", w.Jobs()).Msg("worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		_ = w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped")
			return
		case <-w.stop:
			w.logger.Info().Msg("worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce runs every registered job and joins their errors.
func (w *Worker) RunOnce(ctx context.Context) error {
	var errs []error
	for _, j := range w.jobs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := w.runJob(ctx, j); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
		}
	}
	return errors.Join(errs...)
}

// RunJob runs a single registered job by name.
func (w *Worker) RunJob(ctx context.Context, name string) error {
	for _, j := range w.jobs {
		if j.name == name {
			return w.runJob(ctx, j)
		}
	}
	return fmt.Errorf("no job registered as %q", name)
}

func (w *Worker) runJob(ctx context.Context, j namedJob) (err error) {
	logger := w.logger.With().Str("job", j.name).Logger()
	logger.Debug().Msg("job starting")

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}

		duration := time.Since(start)
		metrics.RecordJobRun(j.name, duration, err)

		if err != nil {
			logger.Error().Err(err).Dur("duration", duration).Msg("job failed")
			return
		}
		logger.Info().Dur("duration", duration).Msg("job completed")
	}()

	return j.run(logging.WithContext(ctx, logger))
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}
