package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/nadmax/ganttline/internal/task"
)

// MockTaskRepository is an in-memory TaskRepository that records calls and
// can be primed with errors.
type MockTaskRepository struct {
	mu              sync.Mutex
	Tasks           map[string]*task.Task
	order           []string
	ListCalls       int
	GetTaskCalls    []string
	CreateTaskCalls []string
	UpdateTaskCalls []string
	DeleteTaskCalls []string
	ListError       error
	GetTaskError    error
	CreateTaskError error
	UpdateTaskError error
	DeleteTaskError error
	PingError       error
	Closed          bool
}

func NewMockTaskRepository(seed ...task.Task) *MockTaskRepository {
	m := &MockTaskRepository{Tasks: make(map[string]*task.Task)}
	for i := range seed {
		t := seed[i]
		m.Tasks[t.ID] = &t
		m.order = append(m.order, t.ID)
	}
	return m
}

func (m *MockTaskRepository) ListTasks(ctx context.Context) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}

	tasks := make([]task.Task, 0, len(m.order))
	for _, id := range m.order {
		tasks = append(tasks, *m.Tasks[id])
	}
	return tasks, nil
}

func (m *MockTaskRepository) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetTaskCalls = append(m.GetTaskCalls, taskID)
	if m.GetTaskError != nil {
		return nil, m.GetTaskError
	}

	t, ok := m.Tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateTaskCalls = append(m.CreateTaskCalls, t.ID)
	if m.CreateTaskError != nil {
		return m.CreateTaskError
	}

	cp := *t
	if _, exists := m.Tasks[t.ID]; !exists {
		m.order = append(m.order, t.ID)
	}
	m.Tasks[t.ID] = &cp
	return nil
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateTaskCalls = append(m.UpdateTaskCalls, t.ID)
	if m.UpdateTaskError != nil {
		return m.UpdateTaskError
	}

	if _, ok := m.Tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	cp := *t
	m.Tasks[t.ID] = &cp
	return nil
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteTaskCalls = append(m.DeleteTaskCalls, taskID)
	if m.DeleteTaskError != nil {
		return m.DeleteTaskError
	}

	if _, ok := m.Tasks[taskID]; !ok {
		return ErrTaskNotFound
	}
	delete(m.Tasks, taskID)
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == taskID })
	return nil
}

func (m *MockTaskRepository) Ping(ctx context.Context) error {
	return m.PingError
}

func (m *MockTaskRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockTaskRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Tasks = make(map[string]*task.Task)
	m.order = nil
	m.ListCalls = 0
	m.GetTaskCalls = nil
	m.CreateTaskCalls = nil
	m.UpdateTaskCalls = nil
	m.DeleteTaskCalls = nil
	m.ListError = nil
	m.GetTaskError = nil
	m.CreateTaskError = nil
	m.UpdateTaskError = nil
	m.DeleteTaskError = nil
	m.PingError = nil
	m.Closed = false
}
