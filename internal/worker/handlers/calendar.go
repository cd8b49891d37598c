package handlers

import (
	"context"
	"fmt"

	"github.com/nadmax/ganttline/internal/gcal"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/task"
)

// Syncer pushes tasks to an external calendar. *gcal.Exporter satisfies it.
type Syncer interface {
	Sync(ctx context.Context, tasks []task.Task) (gcal.SyncResult, error)
}

type CalendarJob struct {
	repo   repository.TaskRepository
	syncer Syncer
}

func NewCalendarJob(repo repository.TaskRepository, syncer Syncer) *CalendarJob {
	return &CalendarJob{repo: repo, syncer: syncer}
}

func (j *CalendarJob) Run(ctx context.Context) error {
	tasks, err := j.repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if _, err := j.syncer.Sync(ctx, tasks); err != nil {
		return fmt.Errorf("calendar sync: %w", err)
	}
	return nil
}
