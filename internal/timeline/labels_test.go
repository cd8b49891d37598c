package timeline

import (
	"math"
	"testing"

	"github.com/nadmax/ganttline/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelInterval(t *testing.T) {
	tests := []struct {
		days int
		want int
	}{
		{days: 1, want: 7},
		{days: 60, want: 7},
		{days: 61, want: 14},
		{days: 180, want: 14},
		{days: 181, want: 30},
		{days: 365, want: 30},
		{days: 366, want: 60},
		{days: 2000, want: 60},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelInterval(tt.days), "days=%d", tt.days)
	}
}

func TestGenerateAxisLabels_WeeklyWithImportantDates(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", StartDate: "2026-02-01", EndDate: "2026-02-05"},
		{ID: "2", StartDate: "2026-02-20", EndDate: "2026-02-25"},
	}
	rng := ComputeDateRange(tasks, today, DefaultBuffer())

	labels := AxisLabels(rng, tasks, DefaultScale())

	var texts []string
	var important []string
	for _, l := range labels {
		texts = append(texts, l.Text)
		if l.Important {
			important = append(important, l.Text)
		}
	}

	assert.Equal(t, []string{"01/25", "02/01", "02/05", "02/08", "02/15", "02/22", "02/25", "03/01"}, texts)
	assert.Equal(t, []string{"02/05", "02/25"}, important)

	for i := 1; i < len(labels); i++ {
		assert.True(t, labels[i-1].Date.Before(labels[i].Date))
	}
	assert.Equal(t, 530.0, labels[2].Offset)
}

func TestGenerateAxisLabels_ImportantSpacing(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", StartDate: "2026-02-01", EndDate: "2026-02-05"},
		{ID: "2", StartDate: "2026-02-20", EndDate: "2026-02-25"},
	}
	rng := ComputeDateRange(tasks, today, DefaultBuffer())

	var regular []AxisLabel
	var important []AxisLabel
	for l := range GenerateAxisLabels(rng, tasks, DefaultScale()) {
		if l.Important {
			important = append(important, l)
		} else {
			regular = append(regular, l)
		}
	}

	require.NotEmpty(t, regular)
	assert.LessOrEqual(t, len(important), 4)
	for _, imp := range important {
		for _, reg := range regular {
			gap := math.Abs(DaysBetween(reg.Date, imp.Date))
			assert.GreaterOrEqual(t, gap, float64(ImportantLabelSpacing))
		}
	}
}

func TestGenerateAxisLabels_Idempotent(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", StartDate: "2026-01-03", EndDate: "2026-04-09"},
		{ID: "2", StartDate: "2026-02-17", EndDate: "2026-02-18"},
		{ID: "3", StartDate: "2026-05-30", EndDate: "2026-07-01"},
	}
	rng := ComputeDateRange(tasks, today, DefaultBuffer())
	seq := GenerateAxisLabels(rng, tasks, DefaultScale())

	var first, second []AxisLabel
	for l := range seq {
		first = append(first, l)
	}
	for l := range seq {
		second = append(second, l)
	}

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, first, AxisLabels(rng, tasks, DefaultScale()))
}

func TestGenerateAxisLabels_StopsEarly(t *testing.T) {
	rng := ComputeDateRange(nil, today, DefaultBuffer())

	count := 0
	for range GenerateAxisLabels(rng, nil, DefaultScale()) {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}

func TestGenerateAxisLabels_EmptyTasks(t *testing.T) {
	rng := ComputeDateRange(nil, today, DefaultBuffer())

	labels := AxisLabels(rng, nil, DefaultScale())

	require.NotEmpty(t, labels)
	assert.Equal(t, rng.Start, labels[0].Date)
	assert.Equal(t, "07/01", labels[0].Text)
	assert.Equal(t, DefaultLeftMargin*1.0, labels[0].Offset)
	assert.Equal(t, 30, LabelInterval(TotalDays(rng)))
	for _, l := range labels {
		assert.False(t, l.Important)
	}
}

func TestGenerateAxisLabels_IgnoresInputMutation(t *testing.T) {
	tasks := []task.Task{{ID: "1", StartDate: "2026-02-01", EndDate: "2026-02-05"}}
	rng := ComputeDateRange(tasks, today, DefaultBuffer())

	seq := GenerateAxisLabels(rng, tasks, DefaultScale())
	before := AxisLabels(rng, tasks, DefaultScale())

	tasks[0].EndDate = "2026-02-11"

	var after []AxisLabel
	for l := range seq {
		after = append(after, l)
	}
	assert.Equal(t, before, after)
}
