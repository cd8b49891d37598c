package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nadmax/ganttline/internal/httputil"
	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/nadmax/ganttline/internal/render"
	"github.com/nadmax/ganttline/internal/timeline"
)

func (a *API) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	chart, ok := a.layout(w, r, "json")
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, chart)
}

func (a *API) handleTimelineSVG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	chart, ok := a.layout(w, r, "svg")
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = io.WriteString(w, render.SVG(chart, a.opts.Style.Theme))
}

func (a *API) handleStages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, a.opts.Style.Palette)
}

// layout builds the chart for the request's zoom and filter parameters.
func (a *API) layout(w http.ResponseWriter, r *http.Request, format string) (timeline.Chart, bool) {
	opts, err := a.chartOptions(r)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return timeline.Chart{}, false
	}

	tasks, err := a.repo.ListTasks(r.Context())
	if err != nil {
		a.internalError(w, r, err, "Failed to load tasks")
		return timeline.Chart{}, false
	}

	start := time.Now()
	chart := timeline.Layout(tasks, opts)
	metrics.RecordLayout(format, time.Since(start), len(chart.Skipped))

	return chart, true
}

func (a *API) chartOptions(r *http.Request) (timeline.Options, error) {
	opts := timeline.Options{
		Scale:   a.opts.Scale,
		Buffer:  a.opts.Buffer,
		Palette: a.opts.Style.Palette,
		Today:   a.opts.Now(),
	}

	if raw := r.URL.Query().Get("zoom"); raw != "" {
		zoom, err := strconv.ParseFloat(raw, 64)
		if err != nil || !(zoom >= timeline.MinZoom && zoom <= timeline.MaxZoom) {
			return opts, fmt.Errorf("query parameter zoom must be a number between %g and %g", timeline.MinZoom, float64(timeline.MaxZoom))
		}
		opts.Scale = opts.Scale.WithZoom(zoom)
	}

	onlyIncomplete, err := queryBool(r, "incomplete")
	if err != nil {
		return opts, err
	}
	opts.OnlyIncomplete = onlyIncomplete

	return opts, nil
}
