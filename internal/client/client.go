// Package client is a Go client for the ganttline REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nadmax/ganttline/internal/dashboard"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
)

const DefaultServer = "http://localhost:8080"

// StatusError is returned for every non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
	Details    []task.FieldError
}

func (e *StatusError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+" "+d.Message)
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Message, strings.Join(parts, "; "))
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultServer
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListOptions filters ListTasks.
type ListOptions struct {
	Incomplete bool
	Stage      string
}

// ChartOptions selects the zoom and filter of a timeline request.
type ChartOptions struct {
	Zoom       float64
	Incomplete bool
}

func (o ChartOptions) query() url.Values {
	q := url.Values{}
	if o.Zoom > 0 {
		q.Set("zoom", strconv.FormatFloat(o.Zoom, 'f', -1, 64))
	}
	if o.Incomplete {
		q.Set("incomplete", "true")
	}
	return q
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]task.Task, error) {
	q := url.Values{}
	if opts.Incomplete {
		q.Set("incomplete", "true")
	}
	if opts.Stage != "" {
		q.Set("stage", opts.Stage)
	}

	var tasks []task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	var created task.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nil, newTaskBody(t), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch task.Patch) (*task.Task, error) {
	var updated task.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), nil, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Timeline(ctx context.Context, opts ChartOptions) (*timeline.Chart, error) {
	var chart timeline.Chart
	if err := c.do(ctx, http.MethodGet, "/api/timeline", opts.query(), nil, &chart); err != nil {
		return nil, err
	}
	return &chart, nil
}

func (c *Client) TimelineSVG(ctx context.Context, opts ChartOptions) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/timeline.svg", opts.query(), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return io.ReadAll(resp.Body)
}

func (c *Client) Stages(ctx context.Context) (timeline.Palette, error) {
	var p timeline.Palette
	err := c.do(ctx, http.MethodGet, "/api/stages", nil, nil, &p)
	return p, err
}

func (c *Client) Stats(ctx context.Context) (*dashboard.Stats, error) {
	var s dashboard.Stats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx responses into *StatusError.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	return nil, decodeStatusError(resp)
}

func decodeStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	se := &StatusError{StatusCode: resp.StatusCode}

	var payload struct {
		Error   string            `json:"error"`
		Details []task.FieldError `json:"details"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		se.Message = payload.Error
		se.Details = payload.Details
		return se
	}

	se.Message = strings.TrimSpace(string(data))
	if se.Message == "" {
		se.Message = http.StatusText(resp.StatusCode)
	}
	return se
}

type newTask struct {
	Stage         string `json:"stage,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	Milestone     string `json:"milestone"`
	Description   string `json:"description,omitempty"`
	HolidayImpact string `json:"holidayImpact,omitempty"`
	Dependencies  string `json:"dependencies,omitempty"`
	Responsible   string `json:"responsible,omitempty"`
	Risks         string `json:"risks,omitempty"`
	Completed     bool   `json:"completed"`
}

func newTaskBody(t *task.Task) newTask {
	return newTask{
		Stage:         t.Stage,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		Milestone:     t.Milestone,
		Description:   t.Description,
		HolidayImpact: t.HolidayImpact,
		Dependencies:  t.Dependencies,
		Responsible:   t.Responsible,
		Risks:         t.Risks,
		Completed:     t.Completed,
	}
}
