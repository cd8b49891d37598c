package timeline

import (
	"time"

	"github.com/nadmax/ganttline/internal/task"
)

const (
	AxisHeight = 40
	RowHeight  = 40
)

// Options are the view parameters of one chart rendering.
type Options struct {
	Scale          Scale
	Buffer         Buffer
	Palette        Palette
	Today          time.Time
	OnlyIncomplete bool
}

// Row is one task line of the chart. Bar is nil when the task has no
// usable dates.
type Row struct {
	Task task.Task `json:"task"`
	Bar  *Bar      `json:"bar,omitempty"`
}

// Group is a stage header followed by its task rows.
type Group struct {
	Stage string `json:"stage"`
	Color string `json:"color"`
	Rows  []Row  `json:"rows"`
}

// Chart is the complete geometry of a Gantt view.
type Chart struct {
	Range        DateRange   `json:"range"`
	TotalDays    int         `json:"totalDays"`
	PixelsPerDay float64     `json:"pixelsPerDay"`
	LeftMargin   float64     `json:"leftMargin"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
	TodayOffset  float64     `json:"todayOffset"`
	ShowsToday   bool        `json:"showsToday"`
	Labels       []AxisLabel `json:"labels"`
	Groups       []Group     `json:"groups"`
	TaskCount    int         `json:"taskCount"`
	Skipped      []string    `json:"skipped,omitempty"`
}

// Layout computes the whole chart. The range and the important axis labels
// come from every task so toggling the incomplete-only filter keeps the axis
// still; rows only list the tasks that pass the filter.
func Layout(tasks []task.Task, opts Options) Chart {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = task.Midnight(today)

	rng := ComputeDateRange(tasks, today, opts.Buffer)
	s := opts.Scale

	chart := Chart{
		Range:        rng,
		TotalDays:    TotalDays(rng),
		PixelsPerDay: s.PixelsPerDay(),
		LeftMargin:   s.LeftMargin,
		Width:        ChartWidth(rng, s),
		TodayOffset:  s.Offset(today, rng),
		ShowsToday:   rng.Contains(today),
		Labels:       AxisLabels(rng, tasks, s),
	}

	visible := task.FilterIncomplete(tasks, opts.OnlyIncomplete)
	rows := 0
	for _, g := range task.GroupByStage(visible) {
		group := Group{
			Stage: g.Stage,
			Color: opts.Palette.Color(g.Stage),
			Rows:  make([]Row, 0, len(g.Tasks)),
		}
		for _, t := range g.Tasks {
			row := Row{Task: t}
			if bar, ok := ComputeTaskBar(t, rng, s); ok {
				row.Bar = &bar
			} else {
				chart.Skipped = append(chart.Skipped, t.ID)
			}
			group.Rows = append(group.Rows, row)
		}
		rows += len(group.Rows)
		chart.Groups = append(chart.Groups, group)
	}

	chart.TaskCount = rows
	chart.Height = float64(AxisHeight + (len(chart.Groups)+rows)*RowHeight)

	return chart
}
