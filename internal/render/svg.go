// Package render draws timeline charts as standalone SVG documents.
package render

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nadmax/ganttline/internal/timeline"
)

const (
	barInset     = 8
	barHeight    = timeline.RowHeight - 2*barInset
	swatchSize   = 14
	legendHeight = 40
	rightPadding = 40
	labelBase    = 26
)

// SVG renders the chart. The output is deterministic for a given chart and theme.
func SVG(chart timeline.Chart, theme Theme) string {
	width := chart.Width + rightPadding
	height := chart.Height
	if len(chart.Groups) > 0 {
		height += legendHeight
	}

	var svg strings.Builder
	fmt.Fprintf(&svg, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
.label { font-family: %s; font-size: %dpx; fill: %s; }
.label.important { font-weight: bold; fill: %s; }
.stage { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; }
.milestone { font-family: %s; font-size: %dpx; fill: %s; }
</style>
</defs>
`, px(width), px(height), px(width), px(height), theme.Background,
		theme.FontFamily, theme.FontSize-1, theme.Text,
		theme.Important,
		theme.FontFamily, theme.FontSize+1, theme.Text,
		theme.FontFamily, theme.FontSize, theme.Text)

	drawAxis(&svg, chart, theme)
	drawGroups(&svg, chart, theme)

	if chart.ShowsToday {
		fmt.Fprintf(&svg, `<line class="today" x1="%s" y1="%d" x2="%s" y2="%s" stroke="%s" stroke-width="2" stroke-dasharray="4 2"/>`+"\n",
			px(chart.TodayOffset), timeline.AxisHeight, px(chart.TodayOffset), px(chart.Height), theme.Today)
	}

	if len(chart.Groups) > 0 {
		drawLegend(&svg, chart, theme)
	}

	svg.WriteString("</svg>\n")
	return svg.String()
}

func drawAxis(svg *strings.Builder, chart timeline.Chart, theme Theme) {
	fmt.Fprintf(svg, `<line x1="%s" y1="%d" x2="%s" y2="%d" stroke="%s"/>`+"\n",
		px(chart.LeftMargin), timeline.AxisHeight, px(chart.Width), timeline.AxisHeight, theme.Grid)

	for _, l := range chart.Labels {
		class := "label"
		stroke := theme.Grid
		if l.Important {
			class = "label important"
			stroke = theme.Important
		}
		fmt.Fprintf(svg, `<line x1="%s" y1="%d" x2="%s" y2="%s" stroke="%s" stroke-width="1"/>`+"\n",
			px(l.Offset), timeline.AxisHeight, px(l.Offset), px(chart.Height), stroke)
		fmt.Fprintf(svg, `<text class="%s" x="%s" y="%d">%s</text>`+"\n",
			class, px(l.Offset+2), labelBase, escapeXML(l.Text))
	}
}

func drawGroups(svg *strings.Builder, chart timeline.Chart, theme Theme) {
	y := float64(timeline.AxisHeight)
	maxChars := int(chart.LeftMargin) / max(theme.FontSize/2+1, 1)

	for _, g := range chart.Groups {
		fmt.Fprintf(svg, `<g class="group" data-stage="%s">`+"\n", escapeXML(g.Stage))
		fmt.Fprintf(svg, `<rect x="8" y="%s" width="%d" height="%d" fill="%s"/>`+"\n",
			px(y+(timeline.RowHeight-swatchSize)/2), swatchSize, swatchSize, g.Color)
		fmt.Fprintf(svg, `<text class="stage" x="28" y="%s">%s</text>`+"\n",
			px(y+labelBase), escapeXML(truncate(g.Stage, maxChars)))
		y += timeline.RowHeight

		for _, row := range g.Rows {
			fmt.Fprintf(svg, `<text class="milestone" x="16" y="%s">%s</text>`+"\n",
				px(y+labelBase), escapeXML(truncate(row.Task.Milestone, maxChars)))

			if row.Bar != nil {
				drawBar(svg, *row.Bar, y, g.Color, row.Task.Completed, theme)
			}
			y += timeline.RowHeight
		}
		svg.WriteString("</g>\n")
	}
}

func drawBar(svg *strings.Builder, bar timeline.Bar, rowY float64, color string, completed bool, theme Theme) {
	opacity := 1.0
	if completed {
		opacity = theme.CompletedOpacity
	}

	extra := ""
	if bar.Inverted {
		extra = fmt.Sprintf(` stroke="%s" stroke-width="2" stroke-dasharray="3 2"`, theme.Important)
	}

	fmt.Fprintf(svg, `<rect class="bar" data-task="%s" x="%s" y="%s" width="%s" height="%d" rx="4" fill="%s" fill-opacity="%s"%s/>`+"\n",
		escapeXML(bar.TaskID), px(bar.Offset), px(rowY+barInset), px(bar.Width), barHeight, color, px(opacity), extra)
}

func drawLegend(svg *strings.Builder, chart timeline.Chart, theme Theme) {
	y := chart.Height + (legendHeight-swatchSize)/2
	x := chart.LeftMargin

	for _, g := range chart.Groups {
		fmt.Fprintf(svg, `<rect x="%s" y="%s" width="%d" height="%d" fill="%s"/>`+"\n",
			px(x), px(y), swatchSize, swatchSize, g.Color)
		fmt.Fprintf(svg, `<text class="label" x="%s" y="%s">%s</text>`+"\n",
			px(x+swatchSize+4), px(y+swatchSize-2), escapeXML(g.Stage))
		x += swatchSize + 12 + float64(utf8.RuneCountInString(g.Stage)*theme.FontSize*6/10)
	}
}

func truncate(s string, maxChars int) string {
	if maxChars <= 1 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	r := []rune(s)
	return string(r[:maxChars-1]) + "…"
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeXML is safe for both text and attribute values. Invalid UTF-8 and
// characters outside the XML range become U+FFFD.
func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
