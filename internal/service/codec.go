package service

import (
	"encoding/json"
	"fmt"
	"time"

	dom "Taskflow/internal/domain"
	"Taskflow/internal/store"
)

// taskDoc is the stored shape of a task or history entry.
type taskDoc struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Comments    []string  `json:"comments"`

	TaskID      string     `json:"taskId,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func toDocument(v taskDoc) (store.Document, error) {
	if v.Comments == nil {
		v.Comments = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc store.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc store.Document) (taskDoc, error) {
	var v taskDoc
	b, err := json.Marshal(doc)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode task document: %w", err)
	}
	return v, nil
}

func taskToDocument(t dom.Task) (store.Document, error) {
	return toDocument(taskDoc{
		Title:       t.Title,
		Description: t.Description,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Comments:    t.Comments,
	})
}

func taskFromDocument(id string, doc store.Document) (dom.Task, error) {
	v, err := fromDocument(doc)
	if err != nil {
		return dom.Task{}, err
	}
	status := dom.Status(v.Status)
	if !status.IsValid() {
		status = dom.StatusPending
	}
	comments := v.Comments
	if comments == nil {
		comments = []string{}
	}
	return dom.Task{
		ID:          id,
		Title:       v.Title,
		Description: v.Description,
		StartDate:   v.StartDate,
		EndDate:     v.EndDate,
		Priority:    dom.ParsePriority(v.Priority),
		Status:      status,
		Comments:    comments,
	}, nil
}

func historyToDocument(h dom.HistoryEntry) (store.Document, error) {
	completedAt := h.CompletedAt
	return toDocument(taskDoc{
		Title:       h.Title,
		Description: h.Description,
		StartDate:   h.StartDate,
		EndDate:     h.EndDate,
		Priority:    string(h.Priority),
		Status:      string(h.Status),
		Comments:    h.Comments,
		TaskID:      h.TaskID,
		CompletedAt: &completedAt,
	})
}

func historyFromDocument(id string, doc store.Document) (dom.HistoryEntry, error) {
	v, err := fromDocument(doc)
	if err != nil {
		return dom.HistoryEntry{}, err
	}
	h := dom.HistoryEntry{
		ID:          id,
		TaskID:      v.TaskID,
		Title:       v.Title,
		Description: v.Description,
		StartDate:   v.StartDate,
		EndDate:     v.EndDate,
		Priority:    dom.ParsePriority(v.Priority),
		Status:      dom.StatusCompleted,
		Comments:    v.Comments,
	}
	if h.Comments == nil {
		h.Comments = []string{}
	}
	if v.CompletedAt != nil {
		h.CompletedAt = *v.CompletedAt
	}
	return h, nil
}
