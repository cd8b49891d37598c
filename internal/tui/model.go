// Package tui is the interactive terminal Gantt viewer.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
)

const (
	minZoom    = timeline.MinZoom
	maxZoom    = timeline.MaxZoom
	zoomFactor = 1.5

	// labelWidth is the column reserved for stage and milestone names.
	labelWidth = 28
)

// Loader fetches the current task list.
type Loader func(ctx context.Context) ([]task.Task, error)

type Options struct {
	Buffer         timeline.Buffer
	Palette        timeline.Palette
	Zoom           float64
	OnlyIncomplete bool
	Now            func() time.Time
}

type Model struct {
	ctx     context.Context
	load    Loader
	opts    Options
	tasks   []task.Task
	err     error
	loading bool

	zoom           float64
	onlyIncomplete bool
	scroll         int
	top            int
	width          int
	height         int
}

type tasksMsg struct {
	tasks []task.Task
	err   error
}

func NewModel(ctx context.Context, load Loader, opts Options) *Model {
	if opts.Zoom <= 0 {
		opts.Zoom = 1
	}
	opts.Zoom = min(max(opts.Zoom, minZoom), maxZoom)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Model{
		ctx:            ctx,
		load:           load,
		opts:           opts,
		loading:        true,
		zoom:           opts.Zoom,
		onlyIncomplete: opts.OnlyIncomplete,
		width:          100,
		height:         30,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.fetch()
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.load(m.ctx)
		return tasksMsg{tasks: tasks, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.tasks = msg.tasks
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "+", "=":
			m.zoom = min(m.zoom*zoomFactor, maxZoom)
		case "-", "_":
			m.zoom = max(m.zoom/zoomFactor, minZoom)
		case "0":
			m.zoom = m.opts.Zoom
			m.scroll = 0
			m.top = 0
		case "i":
			m.onlyIncomplete = !m.onlyIncomplete
		case "left", "h":
			m.scroll = max(m.scroll-m.scrollStep(), 0)
		case "right", "l":
			m.scroll += m.scrollStep()
		case "up", "k":
			m.top = max(m.top-1, 0)
		case "down", "j":
			m.top++
		case "home":
			m.scroll = 0
			m.top = 0
		case "r":
			m.loading = true
			return m, m.fetch()
		}
	}
	return m, nil
}

func (m *Model) scrollStep() int {
	return max(m.chartWidth()/4, 1)
}

func (m *Model) chartWidth() int {
	return max(m.width-labelWidth-1, 10)
}

// Scale maps one terminal column to one pixel, so the base density is one column per day.
func (m *Model) Scale() timeline.Scale {
	return timeline.Scale{
		BasePixelsPerDay: 1,
		Zoom:             m.zoom,
		LeftMargin:       0,
		MinBarWidth:      1,
	}
}

// Chart lays out the loaded tasks with the current view settings.
func (m *Model) Chart() timeline.Chart {
	return timeline.Layout(m.tasks, timeline.Options{
		Scale:          m.Scale(),
		Buffer:         m.opts.Buffer,
		Palette:        m.opts.Palette,
		Today:          m.opts.Now(),
		OnlyIncomplete: m.onlyIncomplete,
	})
}

// Run starts the viewer on the alternate screen.
func Run(ctx context.Context, load Loader, opts Options) error {
	program := tea.NewProgram(NewModel(ctx, load, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
