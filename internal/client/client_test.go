package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nadmax/ganttline/internal/api"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupServer runs the real API over an in-memory repository.
func setupServer(t *testing.T, seed ...task.Task) (*Client, *repository.MockTaskRepository) {
	repo := repository.NewMockTaskRepository(seed...)
	opts := api.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC) }

	handler, err := api.NewAPI(repo, opts)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL + "/"), repo
}

func TestClient_TaskLifecycle(t *testing.T) {
	c, repo := setupServer(t)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, &task.Task{
		Stage:     "Permits",
		Milestone: "Apply",
		StartDate: "2024-02-01",
		EndDate:   "2024-02-05",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Contains(t, repo.Tasks, created.ID)

	done := true
	updated, err := c.UpdateTask(ctx, created.ID, task.Patch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	got, err := c.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	open, err := c.ListTasks(ctx, ListOptions{Incomplete: true})
	require.NoError(t, err)
	assert.Empty(t, open)

	require.NoError(t, c.DeleteTask(ctx, created.ID))

	_, err = c.GetTask(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestClient_ValidationError(t *testing.T) {
	c, _ := setupServer(t)

	_, err := c.CreateTask(context.Background(), &task.Task{
		Milestone: "Backwards",
		StartDate: "2024-02-05",
		EndDate:   "2024-02-01",
	})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, "Validation failed", se.Message)
	require.Len(t, se.Details, 1)
	assert.Equal(t, "endDate", se.Details[0].Field)
	assert.Contains(t, err.Error(), "endDate")
}

func TestClient_TimelineAndSVG(t *testing.T) {
	c, _ := setupServer(t, task.Task{ID: "a", Stage: "Permits", Milestone: "Apply", StartDate: "2024-02-01", EndDate: "2024-02-05"})
	ctx := context.Background()

	chart, err := c.Timeline(ctx, ChartOptions{Zoom: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 15.0, chart.PixelsPerDay)
	assert.Equal(t, 1, chart.TaskCount)

	svg, err := c.TimelineSVG(ctx, ChartOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	palette, err := c.Stages(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#8B5CF6", palette.Color("Permits"))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTasks)
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListTasks(context.Background(), ListOptions{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "gateway down", se.Message)
}

func TestClient_SendsQueryAndBody(t *testing.T) {
	var gotQuery string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &gotBody)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","milestone":"m"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(time.Second))
	_, err := c.ListTasks(context.Background(), ListOptions{Incomplete: true, Stage: "Event Day"})
	require.Error(t, err, "object body cannot decode into a list")
	assert.Equal(t, "incomplete=true&stage=Event+Day", gotQuery)

	_, err = c.CreateTask(context.Background(), &task.Task{ID: "ignored", Milestone: "m"})
	require.NoError(t, err)
	assert.NotContains(t, gotBody, "id")
	assert.Equal(t, "m", gotBody["milestone"])
}

func TestClient_ContextCancelled(t *testing.T) {
	c, _ := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListTasks(ctx, ListOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
