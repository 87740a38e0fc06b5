package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date parses a timestamp from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC.
type Date struct{ t *time.Time }

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("date: use YYYY-MM-DD or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain. Nil when absent.
func (d Date) Ptr() *time.Time { return d.t }

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=120"`
	Description string `json:"description" binding:"max=1000"`
	StartDate   Date   `json:"startDate" swaggertype:"string"`
	EndDate     Date   `json:"endDate" swaggertype:"string"`
	// low, medium, high or urgent; anything else is stored as low.
	Priority string `json:"priority"`
}

type ToggleStatusRequest struct {
	CurrentStatus string `json:"currentStatus" binding:"required"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Comments    []string  `json:"comments"`
}

type ListTasksResponse struct {
	Items []TaskResponse `json:"items"`
}

type HistoryEntryResponse struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"taskId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Comments    []string  `json:"comments"`
	CompletedAt time.Time `json:"completedAt"`
}

type ListHistoryResponse struct {
	Items []HistoryEntryResponse `json:"items"`
}

type ToggleStatusResponse struct {
	Status   string                `json:"status"`
	Archived *HistoryEntryResponse `json:"archived,omitempty"`
}
