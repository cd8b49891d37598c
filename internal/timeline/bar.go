package timeline

import (
	"math"

	"github.com/nadmax/ganttline/internal/task"
)

// Bar is the horizontal extent of one task.
type Bar struct {
	TaskID string  `json:"taskId"`
	Offset float64 `json:"offset"`
	Width  float64 `json:"width"`

	// Inverted marks a task whose end date precedes its start date. The bar
	// is drawn at minimum width from the start position.
	Inverted bool `json:"inverted,omitempty"`
}

// ComputeTaskBar places a task on the chart. It reports false when either
// date is missing or malformed; such tasks get no bar.
func ComputeTaskBar(t task.Task, rng DateRange, s Scale) (Bar, bool) {
	start, end, ok := t.Dates()
	if !ok {
		return Bar{}, false
	}

	offset := s.Offset(start, rng)
	width := math.Max(s.Offset(end, rng)-offset, s.minBarWidth())

	return Bar{
		TaskID:   t.ID,
		Offset:   offset,
		Width:    width,
		Inverted: end.Before(start),
	}, true
}
