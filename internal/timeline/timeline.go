// Package timeline converts milestone tasks into Gantt-chart geometry.
//
// Every function here is pure: inputs are taken by value, nothing is cached
// between calls, and identical inputs always produce identical output. Dates
// are handled as UTC midnights so day arithmetic never picks up DST or
// time-zone drift.
package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/nadmax/ganttline/internal/task"
)

const (
	DefaultPixelsPerDay = 30
	DefaultLeftMargin   = 200
	DefaultMinBarWidth  = 10
	DefaultBufferDays   = 7

	// MinZoom and MaxZoom bound the zoom factor accepted from users.
	MinZoom = 0.25
	MaxZoom = 8

	// ImportantLabelSpacing is the minimum distance, in days, between a task
	// date label and any regular axis label.
	ImportantLabelSpacing = 3

	secondsPerDay = 24 * 60 * 60
)

// DateRange is the visible window of a chart. Start and End are UTC midnights.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Scale maps calendar days to horizontal pixels.
type Scale struct {
	BasePixelsPerDay float64 `json:"basePixelsPerDay"`
	Zoom             float64 `json:"zoom"`
	LeftMargin       float64 `json:"leftMargin"`
	MinBarWidth      float64 `json:"minBarWidth"`
}

type BufferPolicy string

const (
	BufferDays   BufferPolicy = "days"
	BufferMonths BufferPolicy = "months"
)

// Buffer pads the computed task range so bars are not flush with the edges.
type Buffer struct {
	Policy BufferPolicy
	Days   int
}

func DefaultScale() Scale {
	return Scale{
		BasePixelsPerDay: DefaultPixelsPerDay,
		Zoom:             1,
		LeftMargin:       DefaultLeftMargin,
		MinBarWidth:      DefaultMinBarWidth,
	}
}

func DefaultBuffer() Buffer {
	return Buffer{Policy: BufferDays, Days: DefaultBufferDays}
}

// PixelsPerDay is the zoomed horizontal scale. A non-positive zoom counts as 1.
func (s Scale) PixelsPerDay() float64 {
	zoom := s.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	base := s.BasePixelsPerDay
	if base <= 0 {
		base = DefaultPixelsPerDay
	}
	return base * zoom
}

func (s Scale) minBarWidth() float64 {
	if s.MinBarWidth <= 0 {
		return DefaultMinBarWidth
	}
	return s.MinBarWidth
}

// WithZoom returns a copy of the scale at another zoom factor.
func (s Scale) WithZoom(zoom float64) Scale {
	s.Zoom = zoom
	return s
}

func (p BufferPolicy) Validate() error {
	switch p {
	case BufferDays, BufferMonths:
		return nil
	default:
		return fmt.Errorf("unknown buffer policy %q (want %q or %q)", p, BufferDays, BufferMonths)
	}
}

// ComputeDateRange returns the chart window for tasks. Tasks missing a valid
// start or end date are ignored. With no valid task the window spans from
// three months before to six months after the start of today's month.
func ComputeDateRange(tasks []task.Task, today time.Time, buf Buffer) DateRange {
	var minDate, maxDate time.Time
	found := false

	for i := range tasks {
		start, end, ok := tasks[i].Dates()
		if !ok {
			continue
		}
		for _, d := range [2]time.Time{start, end} {
			if !found || d.Before(minDate) {
				minDate = d
			}
			if !found || d.After(maxDate) {
				maxDate = d
			}
			found = true
		}
	}

	if !found {
		month := monthStart(task.Midnight(today))
		return DateRange{
			Start: month.AddDate(0, -3, 0),
			End:   month.AddDate(0, 6, 0),
		}
	}

	if buf.Policy == BufferMonths {
		return DateRange{
			Start: monthStart(minDate).AddDate(0, -1, 0),
			End:   monthStart(maxDate).AddDate(0, 1, 0),
		}
	}

	days := buf.Days
	if days < 0 {
		days = 0
	}
	return DateRange{
		Start: minDate.AddDate(0, 0, -days),
		End:   maxDate.AddDate(0, 0, days),
	}
}

// TotalDays is the number of days between Start and End, rounded up.
func TotalDays(rng DateRange) int {
	return int(math.Ceil(DaysBetween(rng.Start, rng.End)))
}

// Contains reports whether d falls on or between the range bounds.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// DateToOffset maps a date to its horizontal pixel position.
func DateToOffset(date time.Time, rng DateRange, pixelsPerDay, leftMargin float64) float64 {
	return leftMargin + math.Floor(DaysBetween(rng.Start, date))*pixelsPerDay
}

// Offset is DateToOffset using the scale's zoomed pixels-per-day and margin.
func (s Scale) Offset(date time.Time, rng DateRange) float64 {
	return DateToOffset(date, rng, s.PixelsPerDay(), s.LeftMargin)
}

// ChartWidth is the canvas width needed to draw the whole range.
func ChartWidth(rng DateRange, s Scale) float64 {
	return s.LeftMargin + float64(TotalDays(rng))*s.PixelsPerDay()
}

// DaysBetween is the signed number of days from one date to another.
// It counts Unix seconds rather than a time.Duration, which saturates
// after about 292 years.
func DaysBetween(from, to time.Time) float64 {
	secs := to.Unix() - from.Unix()
	nanos := to.Nanosecond() - from.Nanosecond()
	return (float64(secs) + float64(nanos)/1e9) / secondsPerDay
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
