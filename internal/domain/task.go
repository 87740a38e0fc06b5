package domain

import "time"

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// ParsePriority returns the priority named by s, or PriorityLow when s is not a known value.
func ParsePriority(s string) Priority {
	p := Priority(s)
	if !p.IsValid() {
		return PriorityLow
	}
	return p
}

// Rank returns the sort position of p: 0 for urgent up to 3 for low.
// Unknown values share low's position.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Status is the lifecycle state of an active task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Task is an item in the active set.
type Task struct {
	ID          string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Priority    Priority
	Status      Status
	Comments    []string
}

// Clone returns a copy of t that shares no slice memory with it.
func (t Task) Clone() Task {
	out := t
	out.Comments = make([]string, len(t.Comments))
	copy(out.Comments, t.Comments)
	return out
}

// HistoryEntry is a task snapshot taken at the moment it was completed.
// TaskID is the id the task had in the active set; ID is the entry's own id.
type HistoryEntry struct {
	ID          string
	TaskID      string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Priority    Priority
	Status      Status
	Comments    []string
	CompletedAt time.Time
}

// Clone returns a copy of h that shares no slice memory with it.
func (h HistoryEntry) Clone() HistoryEntry {
	out := h
	out.Comments = make([]string, len(h.Comments))
	copy(out.Comments, h.Comments)
	return out
}

// NewHistoryEntry copies every field of t and stamps it with completedAt.
func NewHistoryEntry(t Task, completedAt time.Time) HistoryEntry {
	c := t.Clone()
	return HistoryEntry{
		TaskID:      c.ID,
		Title:       c.Title,
		Description: c.Description,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Priority:    c.Priority,
		Status:      StatusCompleted,
		Comments:    c.Comments,
		CompletedAt: completedAt,
	}
}

// AppendComment returns a copy of t with text added after the existing comments.
func AppendComment(t Task, text string) Task {
	out := t.Clone()
	out.Comments = append(out.Comments, text)
	return out
}
