package service

import (
	"testing"
	"time"

	dom "Taskflow/internal/domain"
	"Taskflow/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskDocument(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	task := dom.Task{
		Title: "a", StartDate: start, EndDate: start,
		Priority: dom.PriorityMedium, Status: dom.StatusPending,
	}

	doc, err := taskToDocument(task)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01T10:30:00Z", doc["startDate"])
	assert.Equal(t, []any{}, doc["comments"])
	_, hasCompleted := doc["completedAt"]
	assert.False(t, hasCompleted)

	back, err := taskFromDocument("id1", doc)
	require.NoError(t, err)
	assert.Equal(t, "id1", back.ID)
	assert.True(t, start.Equal(back.StartDate))
	assert.Equal(t, dom.PriorityMedium, back.Priority)
}

func TestTaskFromDocument_Normalizes(t *testing.T) {
	got, err := taskFromDocument("x", store.Document{
		"title":    "legacy",
		"priority": "critical",
		"status":   "done",
	})
	require.NoError(t, err)

	assert.Equal(t, dom.PriorityLow, got.Priority)
	assert.Equal(t, dom.StatusPending, got.Status)
	assert.NotNil(t, got.Comments)
}

func TestHistoryDocument(t *testing.T) {
	done := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	entry := dom.NewHistoryEntry(dom.Task{ID: "t1", Title: "a", Priority: dom.PriorityUrgent, Comments: []string{"c"}}, done)

	doc, err := historyToDocument(entry)
	require.NoError(t, err)
	assert.Equal(t, "t1", doc["taskId"])
	assert.Equal(t, "completed", doc["status"])

	back, err := historyFromDocument("h1", doc)
	require.NoError(t, err)
	assert.Equal(t, "h1", back.ID)
	assert.Equal(t, "t1", back.TaskID)
	assert.True(t, done.Equal(back.CompletedAt))
	assert.Equal(t, []string{"c"}, back.Comments)
}
