// Package csvio reads and writes task spreadsheets and schedule reports as CSV.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
)

// Columns is the header written by WriteTasks and understood by ReadTasks.
var Columns = []string{
	"stage", "startDate", "endDate", "milestone", "description",
	"holidayImpact", "dependencies", "responsible", "risks", "completed",
}

// Accepted spreadsheet date forms, normalized to YYYY-MM-DD on import.
var dateFormats = []string{
	task.DateLayout,
	"2006/1/2",
	"1/2/2006",
}

// RowError describes a data row that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadTasks parses a CSV whose header names task fields (case-insensitive,
// unknown columns ignored). Every valid row becomes a new task; invalid rows
// are reported and skipped. A missing milestone column fails the whole read.
func ReadTasks(r io.Reader) ([]*task.Task, []*RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	columnMap := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		columnMap[name] = i
	}
	if _, ok := columnMap["milestone"]; !ok {
		return nil, nil, fmt.Errorf("milestone column not found in CSV. Available columns: %v", header)
	}

	var tasks []*task.Task
	var rowErrs []*RowError

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return tasks, rowErrs, fmt.Errorf("error reading CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		t, err := parseRow(record, columnMap)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		tasks = append(tasks, t)
	}

	return tasks, rowErrs, nil
}

func parseRow(record []string, columnMap map[string]int) (*task.Task, error) {
	get := func(name string) string {
		i, ok := columnMap[strings.ToLower(name)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	t := task.NewTask(get("stage"), get("milestone"), normalizeDate(get("startDate")), normalizeDate(get("endDate")))
	t.Description = get("description")
	t.HolidayImpact = get("holidayImpact")
	t.Dependencies = get("dependencies")
	t.Responsible = get("responsible")
	t.Risks = get("risks")

	if raw := get("completed"); raw != "" {
		completed, err := parseBool(raw)
		if err != nil {
			return nil, err
		}
		t.Completed = completed
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// normalizeDate rewrites any accepted date form as YYYY-MM-DD and leaves
// anything else untouched for validation to report.
func normalizeDate(s string) string {
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return task.FormatDate(d)
		}
	}
	return s
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "done", "x":
		return true, nil
	case "no", "n", "":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("completed: %q is not a boolean", s)
	}
	return v, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// WriteTasks writes tasks using the Columns header.
func WriteTasks(w io.Writer, tasks []task.Task) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, t := range tasks {
		record := []string{
			t.Stage, t.StartDate, t.EndDate, t.Milestone, t.Description,
			t.HolidayImpact, t.Dependencies, t.Responsible, t.Risks,
			strconv.FormatBool(t.Completed),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ScheduleColumns is the header of the schedule report.
var ScheduleColumns = []string{"stage", "milestone", "startDate", "endDate", "days", "completed", "overdue", "responsible"}

// WriteSchedule writes one line per charted task in chart order. Tasks
// without usable dates are listed with an empty day count.
func WriteSchedule(w io.Writer, chart timeline.Chart, today time.Time) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ScheduleColumns); err != nil {
		return err
	}

	for _, g := range chart.Groups {
		for _, row := range g.Rows {
			t := row.Task
			days := ""
			if start, end, ok := t.Dates(); ok {
				days = strconv.Itoa(int(timeline.DaysBetween(start, end)) + 1)
			}
			record := []string{
				g.Stage, t.Milestone, t.StartDate, t.EndDate, days,
				strconv.FormatBool(t.Completed),
				strconv.FormatBool(t.IsOverdue(today)),
				t.Responsible,
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
