package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nadmax/ganttline/internal/task"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id             TEXT PRIMARY KEY,
	stage          TEXT NOT NULL DEFAULT '',
	start_date     TEXT NOT NULL DEFAULT '',
	end_date       TEXT NOT NULL DEFAULT '',
	milestone      TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	holiday_impact TEXT NOT NULL DEFAULT '',
	dependencies   TEXT NOT NULL DEFAULT '',
	responsible    TEXT NOT NULL DEFAULT '',
	risks          TEXT NOT NULL DEFAULT '',
	completed      INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_stage ON tasks (stage);
`

// SQLiteTaskRepository stores tasks in a single-file database for local use.
type SQLiteTaskRepository struct {
	db *sql.DB
}

func NewSQLiteTaskRepository(ctx context.Context, path string) (*SQLiteTaskRepository, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure SQLite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteTaskRepository{db: db}, nil
}

func (r *SQLiteTaskRepository) ListTasks(ctx context.Context) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return collectTasks(rows)
}

func (r *SQLiteTaskRepository) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	return scanTask(r.db.QueryRowContext(ctx, query, taskID))
}

func (r *SQLiteTaskRepository) CreateTask(ctx context.Context, t *task.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Stage,
		t.StartDate,
		t.EndDate,
		t.Milestone,
		t.Description,
		t.HolidayImpact,
		t.Dependencies,
		t.Responsible,
		t.Risks,
		t.Completed,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *SQLiteTaskRepository) UpdateTask(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks
		SET stage = ?, start_date = ?, end_date = ?, milestone = ?,
			description = ?, holiday_impact = ?, dependencies = ?,
			responsible = ?, risks = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query,
		t.Stage,
		t.StartDate,
		t.EndDate,
		t.Milestone,
		t.Description,
		t.HolidayImpact,
		t.Dependencies,
		t.Responsible,
		t.Risks,
		t.Completed,
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return checkAffected(res)
}

func (r *SQLiteTaskRepository) DeleteTask(ctx context.Context, taskID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return checkAffected(res)
}

func (r *SQLiteTaskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteTaskRepository) Close() error {
	return r.db.Close()
}
