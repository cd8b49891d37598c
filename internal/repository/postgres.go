package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/nadmax/ganttline/internal/task"
)

const postgresSchema = `
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
	completed      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_tasks_stage ON tasks (stage);
`

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTaskRepository(ctx context.Context, connectionString string) (*PostgresTaskRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	repo := &PostgresTaskRepository{db: db}
	if err := repo.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresTaskRepository) ensureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) ListTasks(ctx context.Context) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return collectTasks(rows)
}

func (r *PostgresTaskRepository) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	return scanTask(r.db.QueryRowContext(ctx, query, taskID))
}

func (r *PostgresTaskRepository) CreateTask(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

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
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *PostgresTaskRepository) UpdateTask(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks
		SET stage = $2, start_date = $3, end_date = $4, milestone = $5,
			description = $6, holiday_impact = $7, dependencies = $8,
			responsible = $9, risks = $10, completed = $11, updated_at = $12
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
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
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return checkAffected(res)
}

func (r *PostgresTaskRepository) DeleteTask(ctx context.Context, taskID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return checkAffected(res)
}

func (r *PostgresTaskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresTaskRepository) Close() error {
	return r.db.Close()
}
