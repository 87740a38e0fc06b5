package handlers

import (
	"errors"
	"net/http"

	dom "Taskflow/internal/domain"
	"Taskflow/internal/dto"
	"Taskflow/internal/service"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.svc.CreateTask(c.Request.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate.Ptr(),
		EndDate:     req.EndDate.Ptr(),
		Priority:    req.Priority,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(t))
}

// List godoc
// @Summary      List active tasks
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        sort  query     string  false  "name or priority"  Enums(name, priority)
// @Success      200   {object}  dto.ListTasksResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	list := h.svc.ListTasks(dom.SortCriterion(c.Query("sort")))
	c.JSON(http.StatusOK, dto.ListTasksResponse{Items: tasksToResponses(list)})
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	t, err := h.svc.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Toggle godoc
// @Summary      Toggle task status; completing a task moves it to history
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string                   true  "Task ID"
// @Param        body  body      dto.ToggleStatusRequest  true  "Status the caller last saw"
// @Success      200   {object}  dto.ToggleStatusResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /tasks/{id}/toggle [post]
func (h *TaskHandler) Toggle(c *gin.Context) {
	var req dto.ToggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.ToggleStatus(c.Request.Context(), c.Param("id"), dom.Status(req.CurrentStatus))
	if err != nil {
		writeError(c, err)
		return
	}
	out := dto.ToggleStatusResponse{Status: string(res.Status)}
	if res.Archived != nil {
		entry := historyToResponse(*res.Archived)
		out.Archived = &entry
	}
	c.JSON(http.StatusOK, out)
}

// Archive godoc
// @Summary      Move a task to history
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Task ID"
// @Success      201  {object}  dto.HistoryEntryResponse
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /tasks/{id}/archive [post]
func (h *TaskHandler) Archive(c *gin.Context) {
	entry, err := h.svc.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, historyToResponse(entry))
}

// AddComment godoc
// @Summary      Append a comment to a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string                 true  "Task ID"
// @Param        body  body      dto.AddCommentRequest  true  "Comment"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /tasks/{id}/comments [post]
func (h *TaskHandler) AddComment(c *gin.Context) {
	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.AddComment(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// History godoc
// @Summary      List completed tasks
// @Tags         history
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ListHistoryResponse
// @Router       /history [get]
func (h *TaskHandler) History(c *gin.Context) {
	list := h.svc.ListHistory()
	out := make([]dto.HistoryEntryResponse, len(list))
	for i := range list {
		out[i] = historyToResponse(list[i])
	}
	c.JSON(http.StatusOK, dto.ListHistoryResponse{Items: out})
}

// DeleteHistory godoc
// @Summary      Delete a history entry
// @Tags         history
// @Security     CookieAuth
// @Param        id   path  string  true  "History entry ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /history/{id} [delete]
func (h *TaskHandler) DeleteHistory(c *gin.Context) {
	if err := h.svc.DeleteHistory(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrArchiveIncomplete):
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrArchiveIncomplete.Error()})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func taskToResponse(t dom.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Comments:    t.Comments,
	}
}

func tasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i])
	}
	return out
}

func historyToResponse(h dom.HistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:          h.ID,
		TaskID:      h.TaskID,
		Title:       h.Title,
		Description: h.Description,
		StartDate:   h.StartDate,
		EndDate:     h.EndDate,
		Priority:    string(h.Priority),
		Status:      string(h.Status),
		Comments:    h.Comments,
		CompletedAt: h.CompletedAt,
	}
}
