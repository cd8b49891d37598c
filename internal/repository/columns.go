package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/ganttline/internal/task"
)

const taskColumns = `id, stage, start_date, end_date, milestone, description,
	holiday_impact, dependencies, responsible, risks, completed,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	var createdAt, updatedAt any

	err := row.Scan(
		&t.ID,
		&t.Stage,
		&t.StartDate,
		&t.EndDate,
		&t.Milestone,
		&t.Description,
		&t.HolidayImpact,
		&t.Dependencies,
		&t.Responsible,
		&t.Risks,
		&t.Completed,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}

	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]task.Task, error) {
	defer func() { _ = rows.Close() }()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}

	return tasks, rows.Err()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// parseTime accepts the timestamp forms returned by lib/pq and by the SQLite
// TEXT columns, always yielding UTC.
func parseTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeString(v)
	case []byte:
		return parseTimeString(string(v))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func parseTimeString(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// sortableTime is a fixed-width RFC 3339 layout so TEXT columns order chronologically.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTime)
}
