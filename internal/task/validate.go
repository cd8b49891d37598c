package task

import (
	"fmt"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found on a task.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Validate checks a task before it is written. Dates may be empty, but a
// present date must be YYYY-MM-DD and the end may not precede the start.
func (t *Task) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(t.Milestone) == "" {
		verr.add("milestone", "is required")
	}

	start, okStart := ParseDate(t.StartDate)
	if t.StartDate != "" && !okStart {
		verr.add("startDate", fmt.Sprintf("%q is not a YYYY-MM-DD date", t.StartDate))
	}

	end, okEnd := ParseDate(t.EndDate)
	if t.EndDate != "" && !okEnd {
		verr.add("endDate", fmt.Sprintf("%q is not a YYYY-MM-DD date", t.EndDate))
	}

	if okStart && okEnd && end.Before(start) {
		verr.add("endDate", fmt.Sprintf("%s is before startDate %s", t.EndDate, t.StartDate))
	}

	if len(verr.Fields) > 0 {
		return verr
	}

	return nil
}
