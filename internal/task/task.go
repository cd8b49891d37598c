// Package task defines the milestone task model shared by the API, the persistence layers and the timeline engine.
// It contains the task fields, calendar-date parsing, partial updates and validation helpers.
package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UncategorizedStage groups tasks that carry no stage label.
const UncategorizedStage = "Uncategorized"

type Task struct {
	ID            string    `json:"id"`
	Stage         string    `json:"stage"`
	StartDate     string    `json:"startDate"`
	EndDate       string    `json:"endDate"`
	Milestone     string    `json:"milestone"`
	Description   string    `json:"description,omitempty"`
	HolidayImpact string    `json:"holidayImpact,omitempty"`
	Dependencies  string    `json:"dependencies,omitempty"`
	Responsible   string    `json:"responsible,omitempty"`
	Risks         string    `json:"risks,omitempty"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Patch holds the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Stage         *string `json:"stage,omitempty"`
	StartDate     *string `json:"startDate,omitempty"`
	EndDate       *string `json:"endDate,omitempty"`
	Milestone     *string `json:"milestone,omitempty"`
	Description   *string `json:"description,omitempty"`
	HolidayImpact *string `json:"holidayImpact,omitempty"`
	Dependencies  *string `json:"dependencies,omitempty"`
	Responsible   *string `json:"responsible,omitempty"`
	Risks         *string `json:"risks,omitempty"`
	Completed     *bool   `json:"completed,omitempty"`
	IsCompleted   *bool   `json:"isCompleted,omitempty"`
}

func NewTask(stage, milestone, startDate, endDate string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.New().String(),
		Stage:     stage,
		Milestone: milestone,
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UnmarshalJSON accepts "isCompleted" as an alias of "completed".
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		*alias
		IsCompleted *bool `json:"isCompleted"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.IsCompleted != nil {
		t.Completed = *aux.IsCompleted
	}

	return nil
}

// StageOrDefault returns the stage label used for grouping.
func (t *Task) StageOrDefault() string {
	if t.Stage == "" {
		return UncategorizedStage
	}
	return t.Stage
}

// Dates returns the parsed start and end dates and whether both are valid.
func (t *Task) Dates() (start, end time.Time, ok bool) {
	start, okStart := ParseDate(t.StartDate)
	end, okEnd := ParseDate(t.EndDate)
	if !okStart || !okEnd {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// HasValidDates reports whether both dates parse as calendar dates.
func (t *Task) HasValidDates() bool {
	_, _, ok := t.Dates()
	return ok
}

// IsOverdue reports whether an incomplete task ended before today.
func (t *Task) IsOverdue(today time.Time) bool {
	if t.Completed {
		return false
	}
	end, ok := ParseDate(t.EndDate)
	if !ok {
		return false
	}
	return end.Before(Midnight(today))
}

// Apply copies every non-nil patch field onto the task and bumps UpdatedAt.
func (t *Task) Apply(p Patch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&t.Stage, p.Stage)
	setString(&t.StartDate, p.StartDate)
	setString(&t.EndDate, p.EndDate)
	setString(&t.Milestone, p.Milestone)
	setString(&t.Description, p.Description)
	setString(&t.HolidayImpact, p.HolidayImpact)
	setString(&t.Dependencies, p.Dependencies)
	setString(&t.Responsible, p.Responsible)
	setString(&t.Risks, p.Risks)

	if p.IsCompleted != nil {
		t.Completed = *p.IsCompleted
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}

	t.UpdatedAt = time.Now().UTC()
}

func (t *Task) ToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func TaskFromJSON(data string) (*Task, error) {
	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, err
	}

	return &task, nil
}
