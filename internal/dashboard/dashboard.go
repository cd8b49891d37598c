// Package dashboard computes the summary statistics shown above the chart.
package dashboard

import (
	"net/http"
	"time"

	"github.com/nadmax/ganttline/internal/httputil"
	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
)

type Dashboard struct {
	repo   repository.TaskRepository
	buffer timeline.Buffer
	now    func() time.Time
}

type Stats struct {
	TotalTasks      int            `json:"total_tasks"`
	CompletedTasks  int            `json:"completed_tasks"`
	IncompleteTasks int            `json:"incomplete_tasks"`
	OverdueTasks    int            `json:"overdue_tasks"`
	InvalidDates    int            `json:"invalid_dates"`
	CompletionRate  float64        `json:"completion_rate"`
	TasksByStage    map[string]int `json:"tasks_by_stage"`
	RangeStart      string         `json:"range_start"`
	RangeEnd        string         `json:"range_end"`
	LastUpdated     time.Time      `json:"last_updated"`
}

func NewDashboard(repo repository.TaskRepository, buffer timeline.Buffer) *Dashboard {
	return &Dashboard{repo: repo, buffer: buffer, now: time.Now}
}

// Compute summarizes tasks as of today. The range is the one the chart
// would show for the same tasks and buffer.
func Compute(tasks []task.Task, today time.Time, buffer timeline.Buffer) Stats {
	stats := Stats{
		TotalTasks:   len(tasks),
		TasksByStage: make(map[string]int),
		LastUpdated:  today.UTC(),
	}

	for i := range tasks {
		t := &tasks[i]

		if t.Completed {
			stats.CompletedTasks++
		} else {
			stats.IncompleteTasks++
		}
		if t.IsOverdue(today) {
			stats.OverdueTasks++
		}
		if !t.HasValidDates() {
			stats.InvalidDates++
		}

		stats.TasksByStage[t.StageOrDefault()]++
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks)
	}

	rng := timeline.ComputeDateRange(tasks, today, buffer)
	stats.RangeStart = task.FormatDate(rng.Start)
	stats.RangeEnd = task.FormatDate(rng.End)

	return stats
}

// StageStates counts tasks per stage and state for the task gauges, and
// returns the overdue total alongside.
func StageStates(tasks []task.Task, today time.Time) (map[string]map[string]int, int) {
	counts := make(map[string]map[string]int)
	overdue := 0

	for i := range tasks {
		t := &tasks[i]
		stage := t.StageOrDefault()
		if counts[stage] == nil {
			counts[stage] = make(map[string]int)
		}

		state := metrics.StateOpen
		if t.Completed {
			state = metrics.StateCompleted
		}
		counts[stage][state]++

		if t.IsOverdue(today) {
			overdue++
		}
	}

	return counts, overdue
}

func (d *Dashboard) GetStats(w http.ResponseWriter, r *http.Request) {
	tasks, err := d.repo.ListTasks(r.Context())
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("failed to list tasks for stats")
		httputil.WriteJSONError(w, "Failed to load tasks", http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Compute(tasks, d.now(), d.buffer))
}
