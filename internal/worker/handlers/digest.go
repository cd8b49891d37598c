// Package handlers provides the jobs run by the worker.
// Each job reads the task store and pushes the schedule somewhere else:
// an email digest, a Google Calendar or a CSV report on disk.
package handlers

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers a prepared message. *sendgrid.Client satisfies it.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

func NewSendGridSender(apiKey string) Sender {
	return sendgrid.NewSendClient(apiKey)
}

type DigestConfig struct {
	FromName    string
	FromAddress string
	Recipients  []string
	HorizonDays int
}

// Digest lists the incomplete tasks that need attention, each sorted by end date.
type Digest struct {
	Overdue []task.Task
	DueSoon []task.Task
}

func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.DueSoon) == 0
}

type DigestJob struct {
	repo   repository.TaskRepository
	sender Sender
	cfg    DigestConfig
	now    func() time.Time
}

func NewDigestJob(repo repository.TaskRepository, sender Sender, cfg DigestConfig) *DigestJob {
	return &DigestJob{
		repo:   repo,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
	}
}

// BuildDigest picks incomplete tasks that are overdue or end within horizonDays of today.
func BuildDigest(tasks []task.Task, today time.Time, horizonDays int) Digest {
	today = task.Midnight(today)
	horizon := today.AddDate(0, 0, horizonDays)

	var d Digest
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		end, ok := task.ParseDate(t.EndDate)
		if !ok {
			continue
		}
		switch {
		case end.Before(today):
			d.Overdue = append(d.Overdue, t)
		case !end.After(horizon):
			d.DueSoon = append(d.DueSoon, t)
		}
	}

	byEnd := func(a, b task.Task) int {
		return strings.Compare(a.EndDate, b.EndDate)
	}
	slices.SortStableFunc(d.Overdue, byEnd)
	slices.SortStableFunc(d.DueSoon, byEnd)

	return d
}

func (j *DigestJob) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	tasks, err := j.repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	today := j.now()
	digest := BuildDigest(tasks, today, j.cfg.HorizonDays)
	if digest.Empty() {
		logger.Info().Msg("no upcoming or overdue tasks, digest skipped")
		return nil
	}

	email := j.buildEmail(digest, today)
	response, err := j.sender.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	logger.Info().
		Int("overdue", len(digest.Overdue)).
		Int("due_soon", len(digest.DueSoon)).
		Int("recipients", len(j.cfg.Recipients)).
		Int("status", response.StatusCode).
		Msg("digest sent")
	return nil
}

func (j *DigestJob) buildEmail(d Digest, today time.Time) *mail.SGMailV3 {
	subject := fmt.Sprintf("Schedule digest %s: %d overdue, %d due within %d days",
		task.FormatDate(today), len(d.Overdue), len(d.DueSoon), j.cfg.HorizonDays)

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(j.cfg.FromName, j.cfg.FromAddress))
	m.Subject = subject

	p := mail.NewPersonalization()
	for _, r := range j.cfg.Recipients {
		p.AddTos(mail.NewEmail("", r))
	}
	m.AddPersonalizations(p)

	text, htmlBody := renderDigest(d)
	m.AddContent(
		mail.NewContent("text/plain", text),
		mail.NewContent("text/html", htmlBody),
	)

	return m
}

func renderDigest(d Digest) (string, string) {
	var text, body strings.Builder

	section := func(title string, tasks []task.Task) {
		if len(tasks) == 0 {
			return
		}
		fmt.Fprintf(&text, "%s\n", title)
		fmt.Fprintf(&body, "<h3>%s</h3>\n<ul>\n", html.EscapeString(title))
		for _, t := range tasks {
			line := fmt.Sprintf("%s [%s] ends %s", t.Milestone, t.StageOrDefault(), t.EndDate)
			if t.Responsible != "" {
				line += " (" + t.Responsible + ")"
			}
			fmt.Fprintf(&text, "  - %s\n", line)
			fmt.Fprintf(&body, "<li>%s</li>\n", html.EscapeString(line))
		}
		text.WriteString("\n")
		body.WriteString("</ul>\n")
	}

	section("Overdue", d.Overdue)
	section("Due soon", d.DueSoon)

	return strings.TrimSpace(text.String()), body.String()
}
