// Package repository persists milestone tasks in PostgreSQL or SQLite.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nadmax/ganttline/internal/config"
	"github.com/nadmax/ganttline/internal/task"
)

// ErrTaskNotFound is returned when no task matches the requested id.
var ErrTaskNotFound = errors.New("task not found")

type TaskRepository interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	GetTask(ctx context.Context, taskID string) (*task.Task, error)
	CreateTask(ctx context.Context, t *task.Task) error
	UpdateTask(ctx context.Context, t *task.Task) error
	DeleteTask(ctx context.Context, taskID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the repository selected by the storage configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (TaskRepository, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgresTaskRepository(ctx, cfg.PostgresDSN)
	case "sqlite":
		return NewSQLiteTaskRepository(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
