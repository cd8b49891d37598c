package render

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layoutFor(tasks []task.Task) timeline.Chart {
	return timeline.Layout(tasks, timeline.Options{
		Scale:   timeline.DefaultScale(),
		Buffer:  timeline.DefaultBuffer(),
		Palette: timeline.DefaultPalette(),
		Today:   time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	})
}

func sampleTasks() []task.Task {
	return []task.Task{
		{ID: "t1", Stage: "Permits", Milestone: "File <city> permit", StartDate: "2024-02-01", EndDate: "2024-02-10"},
		{ID: "t2", Stage: "Permits", Milestone: "Approval", StartDate: "2024-02-12", EndDate: "2024-02-20", Completed: true},
		{ID: "t3", Stage: "Event Day", Milestone: "Backwards", StartDate: "2024-02-25", EndDate: "2024-02-22"},
		{ID: "t4", Milestone: "Undated"},
	}
}

func TestSVG_WellFormed(t *testing.T) {
	out := SVG(layoutFor(sampleTasks()), DefaultTheme())

	decoder := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := decoder.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0"`))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestSVG_EscapesControlAndInvalidText(t *testing.T) {
	tasks := []task.Task{
		{ID: "a\"b", Stage: "Q\x01A's", Milestone: "Bad \xff\xfe bytes & \x0bmore", StartDate: "2024-02-01", EndDate: "2024-02-03"},
	}
	out := SVG(layoutFor(tasks), DefaultTheme())

	decoder := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := decoder.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
	assert.Contains(t, out, "\uFFFD")
	assert.NotContains(t, out, "\x01")
	assert.NotContains(t, out, "\x0b")
}

func TestEscapeXML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "File <city> & co", want: "File &lt;city&gt; &amp; co"},
		{in: `say "hi"`, want: "say &#34;hi&#34;"},
		{in: "bell\x07", want: "bell\uFFFD"},
		{in: "\xff", want: "\uFFFD"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeXML(tt.in), "input %q", tt.in)
	}
}

func TestSVG_Content(t *testing.T) {
	chart := layoutFor(sampleTasks())
	out := SVG(chart, DefaultTheme())

	assert.Contains(t, out, "File &lt;city&gt; permit")
	assert.Contains(t, out, `data-stage="Permits"`)
	assert.Contains(t, out, `data-stage="Uncategorized"`)
	assert.Equal(t, 3, strings.Count(out, `class="bar"`), "undated task gets no bar")
	assert.Contains(t, out, `fill="#8B5CF6"`)
	assert.Contains(t, out, `fill-opacity="0.4"`)
	assert.Contains(t, out, `stroke-dasharray="3 2"`, "inverted bar is outlined")
	assert.Contains(t, out, `class="today"`)

	for _, l := range chart.Labels {
		assert.Contains(t, out, ">"+l.Text+"</text>")
	}
}

func TestSVG_ImportantLabels(t *testing.T) {
	chart := layoutFor(sampleTasks())
	important := 0
	for _, l := range chart.Labels {
		if l.Important {
			important++
		}
	}
	require.Positive(t, important)

	out := SVG(chart, DefaultTheme())
	assert.Equal(t, important, strings.Count(out, `class="label important"`))
}

func TestSVG_Empty(t *testing.T) {
	out := SVG(layoutFor(nil), DefaultTheme())

	assert.NotContains(t, out, `class="bar"`)
	assert.NotContains(t, out, `class="group"`)
	assert.Contains(t, out, `class="label"`)
}

func TestSVG_Deterministic(t *testing.T) {
	chart := layoutFor(sampleTasks())
	assert.Equal(t, SVG(chart, DefaultTheme()), SVG(chart, DefaultTheme()))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "ééé…", truncate("éééééé", 4))
}

func TestPx(t *testing.T) {
	assert.Equal(t, "410", px(410))
	assert.Equal(t, "12.5", px(12.5))
}
