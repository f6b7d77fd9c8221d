package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Parallel()
	owner := uuid.New()

	t.Run("applies defaults", func(t *testing.T) {
		task, err := NewTask(owner, TaskDraft{Title: "  Write report  "})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, owner, task.OwnerID)
		assert.Equal(t, "Write report", task.Title, "title should be trimmed")
		assert.Equal(t, StatusPending, task.Status)
		assert.Equal(t, PriorityMedium, task.Priority)
		assert.Nil(t, task.DueDate)
		assert.False(t, task.CreatedAt.IsZero())
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	})

	t.Run("keeps explicit fields", func(t *testing.T) {
		due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
		task, err := NewTask(owner, TaskDraft{
			Title:       "Write report",
			Description: "quarterly",
			Status:      StatusInProgress,
			Priority:    PriorityHigh,
			DueDate:     &due,
		})
		require.NoError(t, err)

		assert.Equal(t, StatusInProgress, task.Status)
		assert.Equal(t, PriorityHigh, task.Priority)
		require.NotNil(t, task.DueDate)
		assert.True(t, due.Equal(*task.DueDate))
		assert.Equal(t, time.UTC, task.DueDate.Location())
	})

	t.Run("itemizes every invalid field", func(t *testing.T) {
		_, err := NewTask(owner, TaskDraft{
			Title:       "   ",
			Description: strings.Repeat("d", 501),
			Status:      "done",
			Priority:    "urgent",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		ve, ok := AsValidationErrors(err)
		require.True(t, ok)
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"title", "description", "status", "priority"}, fields)
	})

	t.Run("title length counts runes", func(t *testing.T) {
		_, err := NewTask(owner, TaskDraft{Title: strings.Repeat("é", MaxTaskTitleLength)})
		assert.NoError(t, err)

		_, err = NewTask(owner, TaskDraft{Title: strings.Repeat("é", MaxTaskTitleLength+1)})
		assert.Error(t, err)
	})
}

func TestStatusNext(t *testing.T) {
	t.Parallel()
	assert.Equal(t, StatusInProgress, StatusPending.Next())
	assert.Equal(t, StatusCompleted, StatusInProgress.Next())
	assert.Equal(t, StatusPending, StatusCompleted.Next())

	for _, s := range Statuses {
		assert.Equal(t, s, s.Next().Next().Next(), "three steps should cycle back to %s", s)
	}
}

func TestPriorityRank(t *testing.T) {
	t.Parallel()
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, Priority("urgent").Rank())
	assert.False(t, Priority("").Valid())
}

func TestTaskApply(t *testing.T) {
	t.Parallel()
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	base, err := NewTask(uuid.New(), TaskDraft{Title: "Original", DueDate: &due})
	require.NoError(t, err)
	later := base.UpdatedAt.Add(time.Minute)

	t.Run("changes only patched fields", func(t *testing.T) {
		status := StatusCompleted
		updated, err := base.Apply(TaskPatch{Status: &status}, later)
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, updated.Status)
		assert.Equal(t, "Original", updated.Title)
		assert.Equal(t, later, updated.UpdatedAt)
		assert.Equal(t, StatusPending, base.Status, "receiver must not change")
	})

	t.Run("clears due date", func(t *testing.T) {
		updated, err := base.Apply(TaskPatch{ClearDueDate: true}, later)
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
		assert.NotNil(t, base.DueDate)
	})

	t.Run("rejects invalid result", func(t *testing.T) {
		empty := ""
		_, err := base.Apply(TaskPatch{Title: &empty}, later)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty patch", func(t *testing.T) {
		assert.True(t, TaskPatch{}.IsEmpty())
		assert.False(t, StatusPatch(StatusCompleted).IsEmpty())
		assert.False(t, TaskPatch{ClearDueDate: true}.IsEmpty())
	})
}

func TestTaskDerivedFlags(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	task := Task{Status: StatusPending, DueDate: &past}
	assert.False(t, task.Completed())
	assert.True(t, task.IsOverdue(now))

	task.Status = StatusCompleted
	assert.True(t, task.Completed())
	assert.False(t, task.IsOverdue(now), "completed tasks are never overdue")

	task = Task{Status: StatusInProgress}
	assert.False(t, task.IsOverdue(now), "tasks without a due date are never overdue")
}
