package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Taskflow/internal/dto"
	"Taskflow/internal/service"
	"Taskflow/internal/store"
	"Taskflow/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// downStore fails every write.
type downStore struct {
	store.Store
}

func (downStore) Create(context.Context, string, store.Document) (string, error) {
	return "", assert.AnError
}

func newTaskRouter(t *testing.T, s store.Store) *gin.Engine {
	t.Helper()
	svc := service.NewTaskService(s, nil)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Close)

	r := gin.New()
	h := NewTaskHandler(svc)
	r.GET("/tasks", h.List)
	r.POST("/tasks", h.Create)
	r.GET("/tasks/:id", h.GetByID)
	r.POST("/tasks/:id/toggle", h.Toggle)
	r.POST("/tasks/:id/archive", h.Archive)
	r.POST("/tasks/:id/comments", h.AddComment)
	r.GET("/history", h.History)
	r.DELETE("/history/:id", h.DeleteHistory)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createTask(t *testing.T, r http.Handler, body gin.H) dto.TaskResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/tasks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskResponse](t, w)
}

func TestTaskHandler_Create(t *testing.T) {
	r := newTaskRouter(t, memstore.New())

	got := createTask(t, r, gin.H{
		"title":     "Plan trip",
		"startDate": "2026-06-01",
		"endDate":   "2026-06-03T18:00:00Z",
		"priority":  "someday",
	})

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "low", got.Priority)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, []string{}, got.Comments)
	assert.Equal(t, "2026-06-01T00:00:00Z", got.StartDate.Format("2006-01-02T15:04:05Z07:00"))
}

func TestTaskHandler_CreateRejectsBadInput(t *testing.T) {
	r := newTaskRouter(t, memstore.New())

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing title", gin.H{"description": "x"}},
		{"blank title", gin.H{"title": "   "}},
		{"bad date", gin.H{"title": "a", "startDate": "tomorrow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTaskHandler_CreateStoreDown(t *testing.T) {
	r := newTaskRouter(t, downStore{Store: memstore.New()})

	w := do(r, http.MethodPost, "/tasks", gin.H{"title": "a"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTaskHandler_ListSorted(t *testing.T) {
	r := newTaskRouter(t, memstore.New())
	createTask(t, r, gin.H{"title": "b", "priority": "low"})
	createTask(t, r, gin.H{"title": "c", "priority": "urgent"})
	createTask(t, r, gin.H{"title": "a", "priority": "medium"})

	titles := func(sort string) []string {
		w := do(r, http.MethodGet, "/tasks?sort="+sort, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out []string
		for _, it := range decode[dto.ListTasksResponse](t, w).Items {
			out = append(out, it.Title)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, titles("name"))
	assert.Equal(t, []string{"c", "a", "b"}, titles("priority"))
	assert.Equal(t, []string{"b", "c", "a"}, titles(""))
}

func TestTaskHandler_GetByID(t *testing.T) {
	r := newTaskRouter(t, memstore.New())
	created := createTask(t, r, gin.H{"title": "a"})

	w := do(r, http.MethodGet, "/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[dto.TaskResponse](t, w).ID)

	w = do(r, http.MethodGet, "/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_ToggleArchives(t *testing.T) {
	r := newTaskRouter(t, memstore.New())
	created := createTask(t, r, gin.H{"title": "X", "priority": "high"})

	w := do(r, http.MethodPost, "/tasks/"+created.ID+"/toggle", gin.H{"currentStatus": "pending"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[dto.ToggleStatusResponse](t, w)
	assert.Equal(t, "completed", res.Status)
	require.NotNil(t, res.Archived)
	assert.Equal(t, created.ID, res.Archived.TaskID)

	w = do(r, http.MethodGet, "/history", nil)
	history := decode[dto.ListHistoryResponse](t, w).Items
	require.Len(t, history, 1)
	assert.Equal(t, "X", history[0].Title)
	assert.Equal(t, "high", history[0].Priority)

	w = do(r, http.MethodPost, "/tasks/"+created.ID+"/toggle", gin.H{"currentStatus": "completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_ToggleBadStatus(t *testing.T) {
	r := newTaskRouter(t, memstore.New())
	created := createTask(t, r, gin.H{"title": "a"})

	w := do(r, http.MethodPost, "/tasks/"+created.ID+"/toggle", gin.H{"currentStatus": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/tasks/"+created.ID+"/toggle", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_Archive(t *testing.T) {
	r := newTaskRouter(t, memstore.New())
	created := createTask(t, r, gin.H{"title": "a"})

	w := do(r, http.MethodPost, "/tasks/"+created.ID+"/archive", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[dto.HistoryEntryResponse](t, w)
	assert.Equal(t, "completed", entry.Status)
	assert.False(t, entry.CompletedAt.IsZero())

	w = do(r, http.MethodPost, "/tasks/"+created.ID+"/archive", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_AddComment(t *testing.T) {
	r := newTaskRouter(t, memstore.New())
	created := createTask(t, r, gin.H{"title": "a"})
	path := "/tasks/" + created.ID + "/comments"

	w := do(r, http.MethodPost, path, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, path, gin.H{"text": "looks good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"looks good"}, decode[dto.TaskResponse](t, w).Comments)

	w = do(r, http.MethodPost, "/tasks/missing/comments", gin.H{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_DeleteHistory(t *testing.T) {
	r := newTaskRouter(t, memstore.New())
	created := createTask(t, r, gin.H{"title": "a"})
	w := do(r, http.MethodPost, "/tasks/"+created.ID+"/archive", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[dto.HistoryEntryResponse](t, w)

	w = do(r, http.MethodDelete, "/history/"+entry.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodDelete, "/history/"+entry.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
