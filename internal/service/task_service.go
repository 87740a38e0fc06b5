package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"Taskflow/internal/cache"
	dom "Taskflow/internal/domain"
	"Taskflow/internal/store"

	"golang.org/x/sync/singleflight"
)

// CreateTaskInput carries the user-supplied fields of a new task.
// Nil dates default to the creation time; an unknown priority becomes low.
type CreateTaskInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Priority    string
}

// ToggleResult reports the status a toggle moved the task to. Archived is set
// when the toggle completed the task and moved it to history.
type ToggleResult struct {
	Status   dom.Status
	Archived *dom.HistoryEntry
}

// TaskService owns the task lifecycle: creation, status transitions, archival into
// history, comments and the sorted views of the live task and history snapshots.
type TaskService struct {
	store store.Store
	cache *cache.TaskCache
	sf    singleflight.Group
	now   func() time.Time

	mu      sync.RWMutex
	tasks   []dom.Task
	history []dom.HistoryEntry
	unsubs  []store.Unsubscribe
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(s store.Store, c *cache.TaskCache) *TaskService {
	return &TaskService{store: s, cache: c, now: time.Now}
}

// Start subscribes to the tasks and history collections. Both snapshots are loaded
// before Start returns.
func (s *TaskService) Start(ctx context.Context) error {
	unsubTasks, err := s.store.Subscribe(ctx, store.CollectionTasks, s.applyTasks)
	if err != nil {
		return storeErr("subscribe tasks", err)
	}
	unsubHistory, err := s.store.Subscribe(ctx, store.CollectionHistory, s.applyHistory)
	if err != nil {
		unsubTasks()
		return storeErr("subscribe history", err)
	}

	s.mu.Lock()
	s.unsubs = append(s.unsubs, unsubTasks, unsubHistory)
	s.mu.Unlock()
	return nil
}

// Close ends both subscriptions.
func (s *TaskService) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

// applyTasks replaces the task list wholesale. Records that fail to decode are left out.
func (s *TaskService) applyTasks(snap store.Snapshot) {
	tasks := make([]dom.Task, 0, len(snap))
	for _, rec := range snap {
		t, err := taskFromDocument(rec.ID, rec.Data)
		if err != nil {
			continue
		}
		tasks = append(tasks, t)
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()

	if s.cache != nil {
		_ = s.cache.InvalidateAll(context.Background())
	}
}

func (s *TaskService) applyHistory(snap store.Snapshot) {
	history := make([]dom.HistoryEntry, 0, len(snap))
	for _, rec := range snap {
		h, err := historyFromDocument(rec.ID, rec.Data)
		if err != nil {
			continue
		}
		history = append(history, h)
	}

	s.mu.Lock()
	s.history = history
	s.mu.Unlock()
}

// Health reports ErrStoreUnavailable when the store says its backend or change
// feed is down. Stores without a health check are assumed healthy.
func (s *TaskService) Health(ctx context.Context) error {
	hc, ok := s.store.(store.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.Health(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// ListTasks returns the latest task snapshot ordered by criterion.
func (s *TaskService) ListTasks(criterion dom.SortCriterion) []dom.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dom.FilterAndSort(s.tasks, criterion)
}

// ListHistory returns the latest history snapshot.
func (s *TaskService) ListHistory() []dom.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dom.HistoryEntry, len(s.history))
	for i, h := range s.history {
		out[i] = h.Clone()
	}
	return out
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (dom.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return dom.Task{}, validationErr("title is required")
	}

	now := s.now().UTC()
	t := dom.Task{
		Title:       title,
		Description: in.Description,
		StartDate:   now,
		EndDate:     now,
		Priority:    dom.ParsePriority(in.Priority),
		Status:      dom.StatusPending,
		Comments:    []string{},
	}
	if in.StartDate != nil {
		t.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		t.EndDate = *in.EndDate
	}

	doc, err := taskToDocument(t)
	if err != nil {
		return dom.Task{}, err
	}
	id, err := s.store.Create(ctx, store.CollectionTasks, doc)
	if err != nil {
		return dom.Task{}, storeErr("create task", err)
	}
	t.ID = id
	return t, nil
}

// GetTask reads one task from the store, through the cache when configured.
func (s *TaskService) GetTask(ctx context.Context, id string) (dom.Task, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("task:"+id, func() (interface{}, error) {
			if t, err := s.cache.Get(ctx, id); err == nil && t != nil {
				return *t, nil
			}
			t, err := s.readTask(ctx, id)
			if err != nil {
				return nil, err
			}
			_ = s.cache.Set(ctx, t)
			return t, nil
		})
		if err != nil {
			return dom.Task{}, err
		}
		return v.(dom.Task).Clone(), nil
	}
	return s.readTask(ctx, id)
}

func (s *TaskService) readTask(ctx context.Context, id string) (dom.Task, error) {
	doc, err := s.store.Read(ctx, store.CollectionTasks, id)
	if err != nil {
		return dom.Task{}, storeErr("read task", err)
	}
	t, err := taskFromDocument(id, doc)
	if err != nil {
		return dom.Task{}, fmt.Errorf("read task: %w", err)
	}
	return t, nil
}

// ToggleStatus flips the task's status from current. Completing a task archives it.
// Flipping a task that was already archived returns ErrNotFound.
func (s *TaskService) ToggleStatus(ctx context.Context, id string, current dom.Status) (ToggleResult, error) {
	if !current.IsValid() {
		return ToggleResult{}, validationErr(fmt.Sprintf("unknown status %q", current))
	}
	next := current.Toggle()

	err := s.store.Update(ctx, store.CollectionTasks, id, store.Document{"status": string(next)})
	s.invalidate(ctx, id)
	if err != nil {
		return ToggleResult{}, storeErr("toggle status", err)
	}
	if next != dom.StatusCompleted {
		return ToggleResult{Status: next}, nil
	}

	entry, err := s.Archive(ctx, id)
	if err != nil {
		return ToggleResult{Status: next}, err
	}
	return ToggleResult{Status: next, Archived: &entry}, nil
}

// Archive moves a task from the active set into history.
//
// Stores implementing store.Mover do this atomically. Otherwise the history entry is
// written first and the task deleted second; if the delete fails the entry is
// removed again. ErrArchiveIncomplete means that removal failed too.
func (s *TaskService) Archive(ctx context.Context, id string) (dom.HistoryEntry, error) {
	t, err := s.readTask(ctx, id)
	if err != nil {
		return dom.HistoryEntry{}, err
	}
	entry := dom.NewHistoryEntry(t, s.now().UTC())
	doc, err := historyToDocument(entry)
	if err != nil {
		return dom.HistoryEntry{}, err
	}

	if mover, ok := s.store.(store.Mover); ok {
		newID, err := mover.Move(ctx, store.CollectionTasks, id, store.CollectionHistory, doc)
		s.invalidate(ctx, id)
		if err != nil {
			return dom.HistoryEntry{}, storeErr("archive", err)
		}
		entry.ID = newID
		return entry, nil
	}

	newID, err := s.store.Create(ctx, store.CollectionHistory, doc)
	if err != nil {
		return dom.HistoryEntry{}, storeErr("archive: insert history", err)
	}
	err = s.store.Delete(ctx, store.CollectionTasks, id)
	s.invalidate(ctx, id)
	if err != nil {
		if cerr := s.store.Delete(ctx, store.CollectionHistory, newID); cerr != nil {
			return dom.HistoryEntry{}, fmt.Errorf("archive %s: %w: %w", id, ErrArchiveIncomplete, errors.Join(err, cerr))
		}
		return dom.HistoryEntry{}, storeErr("archive: delete task", err)
	}
	entry.ID = newID
	return entry, nil
}

// AddComment appends text to the task's comments. Blank text is rejected without
// touching the store.
func (s *TaskService) AddComment(ctx context.Context, id, text string) (dom.Task, error) {
	if strings.TrimSpace(text) == "" {
		return dom.Task{}, validationErr("comment cannot be empty")
	}

	t, err := s.readTask(ctx, id)
	if err != nil {
		return dom.Task{}, err
	}
	updated := dom.AppendComment(t, text)

	err = s.store.Update(ctx, store.CollectionTasks, id, store.Document{"comments": updated.Comments})
	s.invalidate(ctx, id)
	if err != nil {
		return dom.Task{}, storeErr("add comment", err)
	}
	return updated, nil
}

// DeleteHistory removes a history entry for good.
func (s *TaskService) DeleteHistory(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.CollectionHistory, id); err != nil {
		return storeErr("delete history", err)
	}
	return nil
}

func (s *TaskService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, id)
	}
}
