package timeline

import (
	"testing"

	"github.com/nadmax/ganttline/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTaskBar(t *testing.T) {
	tsk := task.Task{ID: "t1", StartDate: "2026-01-01", EndDate: "2026-01-10"}
	rng := ComputeDateRange([]task.Task{tsk}, today, DefaultBuffer())

	bar, ok := ComputeTaskBar(tsk, rng, DefaultScale())

	require.True(t, ok)
	assert.Equal(t, "t1", bar.TaskID)
	assert.Equal(t, 410.0, bar.Offset)
	assert.Equal(t, 9*30.0, bar.Width)
	assert.False(t, bar.Inverted)
}

func TestComputeTaskBar_MinimumWidth(t *testing.T) {
	rng := DateRange{Start: date(2026, 1, 1), End: date(2026, 2, 1)}

	tests := []struct {
		name     string
		task     task.Task
		scale    Scale
		width    float64
		inverted bool
	}{
		{
			name:  "same day",
			task:  task.Task{ID: "a", StartDate: "2026-01-05", EndDate: "2026-01-05"},
			scale: DefaultScale(),
			width: DefaultMinBarWidth,
		},
		{
			name:  "one day zoomed out below floor",
			task:  task.Task{ID: "b", StartDate: "2026-01-05", EndDate: "2026-01-06"},
			scale: DefaultScale().WithZoom(0.2),
			width: DefaultMinBarWidth,
		},
		{
			name:  "custom floor",
			task:  task.Task{ID: "c", StartDate: "2026-01-05", EndDate: "2026-01-05"},
			scale: Scale{BasePixelsPerDay: 30, Zoom: 1, MinBarWidth: 16},
			width: 16,
		},
		{
			name:     "inverted range",
			task:     task.Task{ID: "d", StartDate: "2026-01-20", EndDate: "2026-01-10"},
			scale:    DefaultScale(),
			width:    DefaultMinBarWidth,
			inverted: true,
		},
		{
			name:  "wide enough",
			task:  task.Task{ID: "e", StartDate: "2026-01-05", EndDate: "2026-01-06"},
			scale: DefaultScale(),
			width: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar, ok := ComputeTaskBar(tt.task, rng, tt.scale)

			require.True(t, ok)
			assert.Equal(t, tt.width, bar.Width)
			assert.Equal(t, tt.inverted, bar.Inverted)
			start, _ := task.ParseDate(tt.task.StartDate)
			assert.Equal(t, tt.scale.Offset(start, rng), bar.Offset)
		})
	}
}

func TestComputeTaskBar_InvalidDates(t *testing.T) {
	rng := DateRange{Start: date(2026, 1, 1), End: date(2026, 2, 1)}

	for _, tsk := range []task.Task{
		{ID: "a", StartDate: "2026-01-05", EndDate: ""},
		{ID: "b", StartDate: "", EndDate: "2026-01-05"},
		{ID: "c", StartDate: "2026-13-01", EndDate: "2026-01-05"},
	} {
		_, ok := ComputeTaskBar(tsk, rng, DefaultScale())
		assert.False(t, ok, "task %s", tsk.ID)
	}
}

func TestLayout(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Stage: "Permits", Milestone: "Apply", StartDate: "2026-02-01", EndDate: "2026-02-05"},
		{ID: "2", Stage: "Design/Production", Milestone: "Stage build", StartDate: "2026-02-20", EndDate: "2026-02-25", Completed: true},
		{ID: "3", Stage: "Permits", Milestone: "Approval", StartDate: "2026-01-28", EndDate: "2026-02-03"},
		{ID: "4", Stage: "", Milestone: "Undated", StartDate: "2026-02-10", EndDate: ""},
	}

	chart := Layout(tasks, Options{
		Scale:   DefaultScale(),
		Buffer:  DefaultBuffer(),
		Palette: DefaultPalette(),
		Today:   date(2026, 2, 14),
	})

	assert.Equal(t, date(2026, 1, 21), chart.Range.Start)
	assert.Equal(t, date(2026, 3, 4), chart.Range.End)
	assert.Equal(t, 42, chart.TotalDays)
	assert.Equal(t, 30.0, chart.PixelsPerDay)
	assert.Equal(t, 200.0+42*30, chart.Width)
	assert.True(t, chart.ShowsToday)
	assert.Equal(t, 200.0+24*30, chart.TodayOffset)
	assert.Equal(t, 4, chart.TaskCount)
	assert.Equal(t, float64(AxisHeight+(3+4)*RowHeight), chart.Height)
	assert.Equal(t, []string{"4"}, chart.Skipped)
	assert.NotEmpty(t, chart.Labels)

	require.Len(t, chart.Groups, 3)
	assert.Equal(t, "Permits", chart.Groups[0].Stage)
	assert.Equal(t, "#8B5CF6", chart.Groups[0].Color)
	assert.Equal(t, "3", chart.Groups[0].Rows[0].Task.ID)
	assert.Equal(t, "1", chart.Groups[0].Rows[1].Task.ID)
	assert.Equal(t, task.UncategorizedStage, chart.Groups[2].Stage)
	assert.Equal(t, FallbackColor, chart.Groups[2].Color)
	assert.Nil(t, chart.Groups[2].Rows[0].Bar)
	require.NotNil(t, chart.Groups[0].Rows[0].Bar)
}

func TestLayout_OnlyIncompleteKeepsAxis(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Stage: "A", StartDate: "2026-02-01", EndDate: "2026-02-05"},
		{ID: "2", Stage: "B", StartDate: "2026-05-20", EndDate: "2026-05-25", Completed: true},
	}
	opts := Options{Scale: DefaultScale(), Buffer: DefaultBuffer(), Today: today}

	all := Layout(tasks, opts)
	opts.OnlyIncomplete = true
	filtered := Layout(tasks, opts)

	assert.Equal(t, all.Range, filtered.Range)
	assert.Equal(t, all.Labels, filtered.Labels)
	assert.Equal(t, 2, all.TaskCount)
	assert.Equal(t, 1, filtered.TaskCount)
	require.Len(t, filtered.Groups, 1)
	assert.Equal(t, "A", filtered.Groups[0].Stage)
}

func TestLayout_Empty(t *testing.T) {
	chart := Layout(nil, Options{Scale: DefaultScale(), Buffer: DefaultBuffer(), Today: today})

	assert.True(t, chart.Range.Start.Before(chart.Range.End))
	assert.NotEmpty(t, chart.Labels)
	assert.Empty(t, chart.Groups)
	assert.Equal(t, float64(AxisHeight), chart.Height)
}

func TestPalette(t *testing.T) {
	p := DefaultPalette()

	assert.Equal(t, "#8B5CF6", p.Color("Permits"))
	assert.Equal(t, FallbackColor, p.Color("Unknown"))
	assert.Equal(t, FallbackColor, Palette{}.Color("Permits"))

	merged := p.Merge(Palette{Colors: map[string]string{"Permits": "#000000", "Logistics": "#111111"}, Fallback: "#222222"})
	assert.Equal(t, "#000000", merged.Color("Permits"))
	assert.Equal(t, "#111111", merged.Color("Logistics"))
	assert.Equal(t, "#222222", merged.Color("Nope"))
	assert.Equal(t, "#8B5CF6", p.Color("Permits"), "merge must not touch the receiver")
}
