package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/rs/zerolog"
	"google.golang.org/api/calendar/v3"
)

// PropertyKey is the private extended property linking an event to its task.
const PropertyKey = "ganttline_id"

// SyncResult counts what a Sync call did.
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

type Exporter struct {
	srv        *calendar.Service
	calendarID string
	logger     zerolog.Logger
}

func NewExporter(srv *calendar.Service, calendarID string) *Exporter {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Exporter{
		srv:        srv,
		calendarID: calendarID,
		logger:     logging.Component("gcal"),
	}
}

// Sync upserts one all-day event per task. Tasks without a usable date
// range are skipped. A failing task does not stop the others.
func (e *Exporter) Sync(ctx context.Context, tasks []task.Task) (SyncResult, error) {
	var (
		result SyncResult
		errs   []error
	)

	for i := range tasks {
		t := &tasks[i]

		event, ok := EventFor(t)
		if !ok {
			result.Skipped++
			continue
		}

		existing, err := e.findEvent(ctx, t.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
			continue
		}

		switch {
		case existing == nil:
			if _, err := e.srv.Events.Insert(e.calendarID, event).Context(ctx).Do(); err != nil {
				errs = append(errs, fmt.Errorf("task %s: insert: %w", t.ID, err))
				continue
			}
			result.Created++
		case needsUpdate(existing, event):
			if _, err := e.srv.Events.Patch(e.calendarID, existing.Id, event).Context(ctx).Do(); err != nil {
				errs = append(errs, fmt.Errorf("task %s: patch: %w", t.ID, err))
				continue
			}
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	e.logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("skipped", result.Skipped).
		Int("failed", len(errs)).
		Msg("calendar sync finished")

	return result, errors.Join(errs...)
}

func (e *Exporter) findEvent(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := e.srv.Events.List(e.calendarID).
		PrivateExtendedProperty(PropertyKey + "=" + taskID).
		ShowDeleted(false).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	if len(events.Items) == 0 {
		return nil, nil
	}
	return events.Items[0], nil
}

// EventFor converts a task into an all-day event. Calendar end dates are
// exclusive, so the event ends the day after the task's end date.
func EventFor(t *task.Task) (*calendar.Event, bool) {
	start, end, ok := t.Dates()
	if !ok || end.Before(start) {
		return nil, false
	}

	summary := t.Milestone
	if t.Completed {
		summary = "✓ " + summary
	}

	return &calendar.Event{
		Summary:      fmt.Sprintf("[%s] %s", t.StageOrDefault(), summary),
		Description:  describe(t),
		Start:        &calendar.EventDateTime{Date: task.FormatDate(start)},
		End:          &calendar.EventDateTime{Date: task.FormatDate(end.AddDate(0, 0, 1))},
		Transparency: "transparent",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{PropertyKey: t.ID},
		},
	}, true
}

func describe(t *task.Task) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n\n")
	}
	line("Responsible", t.Responsible)
	line("Dependencies", t.Dependencies)
	line("Risks", t.Risks)
	line("Holiday impact", t.HolidayImpact)

	return strings.TrimSpace(b.String())
}

func needsUpdate(existing, want *calendar.Event) bool {
	return existing.Summary != want.Summary ||
		existing.Description != want.Description ||
		eventDate(existing.Start) != want.Start.Date ||
		eventDate(existing.End) != want.End.Date
}

func eventDate(d *calendar.EventDateTime) string {
	if d == nil {
		return ""
	}
	return d.Date
}
