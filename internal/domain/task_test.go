package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"low", PriorityLow},
		{"medium", PriorityMedium},
		{"high", PriorityHigh},
		{"urgent", PriorityUrgent},
		{"", PriorityLow},
		{"URGENT", PriorityLow},
		{"critical", PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePriority(tt.in))
		})
	}
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, PriorityLow.Rank(), Priority("bogus").Rank())
}

func TestStatusToggle(t *testing.T) {
	assert.Equal(t, StatusCompleted, StatusPending.Toggle())
	assert.Equal(t, StatusPending, StatusCompleted.Toggle())
	assert.True(t, StatusPending.IsValid())
	assert.False(t, Status("done").IsValid())
}

func TestAppendComment(t *testing.T) {
	orig := Task{ID: "t1", Comments: []string{"a", "b"}}

	got := AppendComment(orig, "looks good")

	assert.Equal(t, []string{"a", "b", "looks good"}, got.Comments)
	assert.Equal(t, []string{"a", "b"}, orig.Comments)
}

func TestNewHistoryEntry(t *testing.T) {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	done := start.Add(48 * time.Hour)
	task := Task{
		ID: "t1", Title: "X", Description: "d", StartDate: start, EndDate: start,
		Priority: PriorityHigh, Status: StatusPending, Comments: []string{"c"},
	}

	h := NewHistoryEntry(task, done)

	assert.Equal(t, "t1", h.TaskID)
	assert.Empty(t, h.ID)
	assert.Equal(t, "X", h.Title)
	assert.Equal(t, PriorityHigh, h.Priority)
	assert.Equal(t, StatusCompleted, h.Status)
	assert.Equal(t, done, h.CompletedAt)
	assert.Equal(t, []string{"c"}, h.Comments)

	h.Comments[0] = "changed"
	assert.Equal(t, "c", task.Comments[0])
}

func TestHistoryEntryClone(t *testing.T) {
	h := HistoryEntry{ID: "h1", Title: "a", Comments: []string{"x"}}

	c := h.Clone()
	c.Comments[0] = "y"

	assert.Equal(t, []string{"x"}, h.Comments)
	assert.Equal(t, "h1", c.ID)
}
