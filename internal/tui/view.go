package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
)

const (
	barOpen      = '█'
	barCompleted = '░'
	barInverted  = '▒'
	todayMark    = '│'
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	importantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC2626"))
	todayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

const helpText = "+/- zoom  0 reset  i incomplete  ←/→ scroll  ↑/↓ rows  r reload  q quit"

func (m *Model) View() string {
	var b strings.Builder

	if m.loading && m.tasks == nil {
		b.WriteString("Loading tasks...\n")
		b.WriteString(helpStyle.Render(helpText))
		return b.String()
	}

	chart := m.Chart()
	b.WriteString(m.header(chart))
	b.WriteString("\n")
	b.WriteString(m.axis(chart))
	b.WriteString("\n")

	lines := m.body(chart)
	visible := max(m.height-5, 1)
	top := min(m.top, max(len(lines)-visible, 0))
	end := min(top+visible, len(lines))
	for _, line := range lines[top:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(lines) == 0 {
		b.WriteString(dimStyle.Render("No tasks to display"))
		b.WriteString("\n")
	}

	b.WriteString(m.status(chart))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText))

	return b.String()
}

func (m *Model) header(chart timeline.Chart) string {
	title := fmt.Sprintf("ganttline  %s → %s  %d days  zoom %.2gx",
		task.FormatDate(chart.Range.Start), task.FormatDate(chart.Range.End), chart.TotalDays, m.zoom)
	if m.onlyIncomplete {
		title += "  [incomplete only]"
	}
	return titleStyle.Render(title)
}

// axis places each label at its column, dropping labels that would overlap the previous one.
func (m *Model) axis(chart timeline.Chart) string {
	width := m.chartWidth()
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth+1))

	col := 0
	for _, l := range chart.Labels {
		at := int(l.Offset) - m.scroll
		if at < col || at+len(l.Text) > width {
			continue
		}
		b.WriteString(strings.Repeat(" ", at-col))
		if l.Important {
			b.WriteString(importantStyle.Render(l.Text))
		} else {
			b.WriteString(l.Text)
		}
		col = at + len(l.Text) + 1
		if col <= width {
			b.WriteString(" ")
		}
	}

	return b.String()
}

func (m *Model) body(chart timeline.Chart) []string {
	var lines []string
	for _, g := range chart.Groups {
		stage := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(g.Color))
		lines = append(lines, stage.Render("■ "+fit(fmt.Sprintf("%s (%d)", g.Stage, len(g.Rows)), labelWidth-2)))
		for _, row := range g.Rows {
			lines = append(lines, m.row(chart, row, g.Color))
		}
	}
	return lines
}

func (m *Model) row(chart timeline.Chart, row timeline.Row, color string) string {
	label := "  " + fit(row.Task.Milestone, labelWidth-2)
	if row.Task.Completed {
		label = dimStyle.Render(label)
	}

	width := m.chartWidth()
	if row.Bar == nil {
		return label + " " + dimStyle.Render(fit("no valid dates", width))
	}

	cells := []rune(strings.Repeat(" ", width))
	todayCol := -1
	if chart.ShowsToday {
		todayCol = int(chart.TodayOffset) - m.scroll
		if todayCol >= 0 && todayCol < width {
			cells[todayCol] = todayMark
		}
	}

	from := int(row.Bar.Offset) - m.scroll
	to := from + max(int(row.Bar.Width+0.5), 1)
	from, to = max(from, 0), min(to, width)

	glyph := barOpen
	switch {
	case row.Bar.Inverted:
		glyph = barInverted
	case row.Task.Completed:
		glyph = barCompleted
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString(" ")
	if from >= to {
		b.WriteString(paint(cells, todayCol))
		return b.String()
	}
	b.WriteString(paint(cells[:from], todayCol))
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat(string(glyph), to-from)))
	b.WriteString(paint(cells[to:], todayCol-to))
	return b.String()
}

// paint renders a run of plain cells, colouring the today marker at index todayCol.
func paint(cells []rune, todayCol int) string {
	if todayCol < 0 || todayCol >= len(cells) {
		return string(cells)
	}
	return string(cells[:todayCol]) + todayStyle.Render(string(todayMark)) + string(cells[todayCol+1:])
}

func (m *Model) status(chart timeline.Chart) string {
	switch {
	case m.err != nil:
		return errorStyle.Render("error: " + m.err.Error())
	case m.loading:
		return dimStyle.Render("reloading...")
	}

	s := fmt.Sprintf("%d tasks in %d stages", chart.TaskCount, len(chart.Groups))
	if n := len(chart.Skipped); n > 0 {
		s += fmt.Sprintf(", %d without valid dates", n)
	}
	return dimStyle.Render(s)
}

func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
