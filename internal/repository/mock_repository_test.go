package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/nadmax/ganttline/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTaskRepository(t *testing.T) {
	ctx := context.Background()
	m := NewMockTaskRepository(task.Task{ID: "a", Milestone: "A"}, task.Task{ID: "b", Milestone: "B"})

	require.NoError(t, m.CreateTask(ctx, &task.Task{ID: "c", Milestone: "C"}))
	require.NoError(t, m.DeleteTask(ctx, "a"))

	tasks, err := m.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[0].ID)
	assert.Equal(t, "c", tasks[1].ID)

	got, err := m.GetTask(ctx, "b")
	require.NoError(t, err)
	got.Milestone = "mutated"
	again, _ := m.GetTask(ctx, "b")
	assert.Equal(t, "B", again.Milestone)

	assert.ErrorIs(t, m.UpdateTask(ctx, &task.Task{ID: "zz"}), ErrTaskNotFound)
	assert.Equal(t, []string{"b", "b"}, m.GetTaskCalls)

	m.ListError = errors.New("boom")
	_, err = m.ListTasks(ctx)
	assert.EqualError(t, err, "boom")

	m.Reset()
	tasks, err = m.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
