// Package api serves the task REST API and the rendered timeline.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nadmax/ganttline/internal/dashboard"
	"github.com/nadmax/ganttline/internal/httputil"
	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/nadmax/ganttline/internal/render"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Options carries the chart defaults and serving knobs.
type Options struct {
	Scale     timeline.Scale
	Buffer    timeline.Buffer
	Style     render.Style
	StaticDir string
	Now       func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Scale:  timeline.DefaultScale(),
		Buffer: timeline.DefaultBuffer(),
		Style:  render.DefaultStyle(),
		Now:    time.Now,
	}
}

type API struct {
	repo    repository.TaskRepository
	opts    Options
	schemas *schemas
	mux     *http.ServeMux
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Success bool `json:"success"`
}

func NewAPI(repo repository.TaskRepository, opts Options) (*API, error) {
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	api := &API{
		repo:    repo,
		opts:    opts,
		schemas: s,
		mux:     http.NewServeMux(),
	}

	api.setupRoutes()
	return api, nil
}

func (a *API) setupRoutes() {
	a.mux.HandleFunc("/api/tasks", a.handleTasks)
	a.mux.HandleFunc("/api/tasks/", a.handleTaskByID)
	a.mux.HandleFunc("/api/timeline", a.handleTimeline)
	a.mux.HandleFunc("/api/timeline.svg", a.handleTimelineSVG)
	a.mux.HandleFunc("/api/stages", a.handleStages)

	dash := dashboard.NewDashboard(a.repo, a.opts.Buffer)
	a.mux.HandleFunc("/api/dashboard/stats", getOnly(dash.GetStats))

	a.mux.Handle("/metrics", promhttp.Handler())
	a.mux.HandleFunc("/healthz", a.handleHealth)

	if a.opts.StaticDir != "" {
		a.mux.Handle("/", http.FileServer(http.Dir(a.opts.StaticDir)))
	}
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createTask(w, r)
	case http.MethodGet:
		a.listTasks(w, r)
	default:
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if taskID == "" || strings.Contains(taskID, "/") {
		httputil.WriteJSONError(w, "Task ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getTask(w, r, taskID)
	case http.MethodPut:
		a.updateTask(w, r, taskID)
	case http.MethodDelete:
		a.deleteTask(w, r, taskID)
	default:
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	onlyIncomplete, err := queryBool(r, "incomplete")
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tasks, err := a.repo.ListTasks(r.Context())
	if err != nil {
		a.internalError(w, r, err, "Failed to load tasks")
		return
	}

	tasks = task.FilterIncomplete(tasks, onlyIncomplete)
	if stage, ok := r.URL.Query()["stage"]; ok {
		tasks = filterStage(tasks, stage[0])
	}

	httputil.WriteJSON(w, http.StatusOK, tasks)
}

func (a *API) createTask(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r, a.schemas.create.Validate)
	if !ok {
		return
	}

	var req task.Task
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	t := task.NewTask(req.Stage, req.Milestone, req.StartDate, req.EndDate)
	t.Description = req.Description
	t.HolidayImpact = req.HolidayImpact
	t.Dependencies = req.Dependencies
	t.Responsible = req.Responsible
	t.Risks = req.Risks
	t.Completed = req.Completed

	if !writeValidation(w, t.Validate()) {
		return
	}

	if err := a.repo.CreateTask(r.Context(), t); err != nil {
		a.internalError(w, r, err, "Failed to create task")
		return
	}

	metrics.RecordTaskMutation("create")
	logger := logging.FromContext(r.Context())
	logger.Info().Str("task_id", t.ID).Str("stage", t.Stage).Msg("task created")

	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (a *API) getTask(w http.ResponseWriter, r *http.Request, taskID string) {
	t, err := a.repo.GetTask(r.Context(), taskID)
	if err != nil {
		a.lookupError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, t)
}

func (a *API) updateTask(w http.ResponseWriter, r *http.Request, taskID string) {
	body, ok := a.readBody(w, r, a.schemas.update.Validate)
	if !ok {
		return
	}

	var patch task.Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	t, err := a.repo.GetTask(r.Context(), taskID)
	if err != nil {
		a.lookupError(w, r, err)
		return
	}

	t.Apply(patch)
	if !writeValidation(w, t.Validate()) {
		return
	}

	if err := a.repo.UpdateTask(r.Context(), t); err != nil {
		a.lookupError(w, r, err)
		return
	}

	metrics.RecordTaskMutation("update")
	logger := logging.FromContext(r.Context())
	logger.Info().Str("task_id", t.ID).Bool("completed", t.Completed).Msg("task updated")

	httputil.WriteJSON(w, http.StatusOK, t)
}

func (a *API) deleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if err := a.repo.DeleteTask(r.Context(), taskID); err != nil {
		a.lookupError(w, r, err)
		return
	}

	metrics.RecordTaskMutation("delete")
	logger := logging.FromContext(r.Context())
	logger.Info().Str("task_id", taskID).Msg("task deleted")

	httputil.WriteJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.repo.Ping(r.Context()); err != nil {
		logger := logging.FromContext(r.Context())
		logger.Warn().Err(err).Msg("health check failed")
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// readBody reads the request body and checks it against a schema. It writes
// the error response itself and reports whether the caller may continue.
func (a *API) readBody(w http.ResponseWriter, r *http.Request, validate func(any) error) ([]byte, bool) {
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httputil.WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}

	err = validateBody(validate, body)
	if err == nil {
		return body, true
	}

	var serr *schemaError
	switch {
	case errors.Is(err, errInvalidJSON):
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
	case errors.As(err, &serr):
		httputil.WriteJSONErrorDetails(w, "Request does not match schema", serr.Fields, http.StatusBadRequest)
	default:
		httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	}
	return nil, false
}

// writeValidation writes a 422 for a validation error and reports whether
// the task is valid.
func writeValidation(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}

	var verr *task.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteJSONErrorDetails(w, "Validation failed", verr.Fields, http.StatusUnprocessableEntity)
		return false
	}

	httputil.WriteJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	return false
}

func (a *API) lookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrTaskNotFound) {
		httputil.WriteJSONError(w, "Task not found", http.StatusNotFound)
		return
	}
	a.internalError(w, r, err, "Task store error")
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logger := logging.FromContext(r.Context())
	logger.Error().Err(err).Str("path", r.URL.Path).Msg(message)
	httputil.WriteJSONError(w, message, http.StatusInternalServerError)
}

func filterStage(tasks []task.Task, stage string) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.StageOrDefault() == stage || t.Stage == stage {
			out = append(out, t)
		}
	}
	return out
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New("query parameter " + name + " must be a boolean")
	}
	return v, nil
}
