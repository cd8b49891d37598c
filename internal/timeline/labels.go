package timeline

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"github.com/nadmax/ganttline/internal/task"
)

// AxisLabel is one tick on the time axis.
type AxisLabel struct {
	Date      time.Time `json:"date"`
	Text      string    `json:"text"`
	Offset    float64   `json:"offset"`
	Important bool      `json:"important"`
}

// LabelInterval picks the spacing of regular labels, in days, for a span.
func LabelInterval(totalDays int) int {
	switch {
	case totalDays <= 60:
		return 7
	case totalDays <= 180:
		return 14
	case totalDays <= 365:
		return 30
	default:
		return 60
	}
}

// GenerateAxisLabels yields the axis labels of rng in ascending date order.
// The sequence holds no state between iterations: each range-over call
// recomputes the labels from the inputs captured here.
func GenerateAxisLabels(rng DateRange, tasks []task.Task, s Scale) iter.Seq[AxisLabel] {
	tasks = slices.Clone(tasks)

	return func(yield func(AxisLabel) bool) {
		for _, l := range axisLabels(rng, tasks, s) {
			if !yield(l) {
				return
			}
		}
	}
}

// AxisLabels collects GenerateAxisLabels into a slice.
func AxisLabels(rng DateRange, tasks []task.Task, s Scale) []AxisLabel {
	return slices.Collect(GenerateAxisLabels(rng, tasks, s))
}

func axisLabels(rng DateRange, tasks []task.Task, s Scale) []AxisLabel {
	interval := LabelInterval(TotalDays(rng))

	var labels []AxisLabel
	var regular []time.Time
	for d := rng.Start; !d.After(rng.End); d = d.AddDate(0, 0, interval) {
		regular = append(regular, d)
		labels = append(labels, newLabel(d, rng, s, false))
	}

	for _, d := range importantDates(rng, tasks) {
		if nearAny(d, regular, ImportantLabelSpacing) {
			continue
		}
		labels = append(labels, newLabel(d, rng, s, true))
	}

	slices.SortStableFunc(labels, func(a, b AxisLabel) int {
		return a.Date.Compare(b.Date)
	})

	return labels
}

func newLabel(d time.Time, rng DateRange, s Scale, important bool) AxisLabel {
	return AxisLabel{
		Date:      d,
		Text:      fmt.Sprintf("%02d/%02d", int(d.Month()), d.Day()),
		Offset:    s.Offset(d, rng),
		Important: important,
	}
}

// importantDates returns the distinct start/end dates of dated tasks that
// fall inside rng, sorted ascending.
func importantDates(rng DateRange, tasks []task.Task) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time

	for i := range tasks {
		start, end, ok := tasks[i].Dates()
		if !ok {
			continue
		}
		for _, d := range [2]time.Time{start, end} {
			if seen[d] || !rng.Contains(d) {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
	}

	slices.SortFunc(dates, time.Time.Compare)
	return dates
}

func nearAny(d time.Time, others []time.Time, days int) bool {
	for _, o := range others {
		if math.Abs(DaysBetween(o, d)) < float64(days) {
			return true
		}
	}
	return false
}
