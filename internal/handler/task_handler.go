package handler

import (
	"context"
	"net/http"
	"time"

	"tasktracker/internal/model"
	"tasktracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskService is the part of service.TaskService the HTTP layer needs.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTaskInput) (*model.Task, error)
	Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, ownerID, taskID uuid.UUID, in service.UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, q service.ListTasksQuery) ([]model.Task, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*service.TaskStats, error)
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type CreateTaskRequest struct {
	Title        string            `json:"title"`
	Description  *string           `json:"description"`
	Priority     model.Priority    `json:"priority" binding:"omitempty,priority"`
	Recurrence   *model.Recurrence `json:"recurrence" binding:"omitempty,recurrence"`
	DependsOnIDs []string          `json:"dependsOnIds"`
}

// UpdateTaskRequest distinguishes an absent field from an explicit null for
// description and recurrence. dependsOnIds, when present, replaces the set.
type UpdateTaskRequest struct {
	Title        *string                            `json:"title"`
	Description  service.Nullable[string]           `json:"description" swaggertype:"string"`
	Status       *model.Status                      `json:"status" binding:"omitempty,status"`
	Priority     *model.Priority                    `json:"priority" binding:"omitempty,priority"`
	Recurrence   service.Nullable[model.Recurrence] `json:"recurrence" swaggertype:"string"`
	DependsOnIDs *[]string                          `json:"dependsOnIds"`
}

type ListTasksRequest struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,status"`
	Priority string `form:"priority" binding:"omitempty,priority"`
	Sort     string `form:"sort" binding:"omitempty,oneof=priority status createdAt"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type TaskResponse struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      *string           `json:"description"`
	Status           model.Status      `json:"status"`
	Priority         model.Priority    `json:"priority"`
	Recurrence       *model.Recurrence `json:"recurrence"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	LastRecurrenceAt *time.Time        `json:"lastRecurrenceAt"`
	DependsOnIDs     []string          `json:"dependsOnIds"`
}

func toTaskResponse(task *model.Task) TaskResponse {
	deps := make([]string, 0, len(task.Dependencies))
	for _, id := range task.DependsOnIDs() {
		deps = append(deps, id.String())
	}

	return TaskResponse{
		ID:               task.ID.String(),
		Title:            task.Title,
		Description:      task.Description,
		Status:           task.Status,
		Priority:         task.Priority,
		Recurrence:       task.Recurrence,
		CreatedAt:        task.CreatedAt,
		UpdatedAt:        task.UpdatedAt,
		LastRecurrenceAt: task.LastRecurrenceAt,
		DependsOnIDs:     deps,
	}
}

// ListTasks godoc
// @Summary      List tasks
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        search    query     string  false  "Title substring"
// @Param        status    query     string  false  "NOT_DONE or DONE"
// @Param        priority  query     string  false  "LOW, MEDIUM or HIGH"
// @Param        sort      query     string  false  "priority, status or createdAt"
// @Param        order     query     string  false  "asc or desc"
// @Success      200       {object}  map[string][]TaskResponse
// @Router       /api/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "details": err.Error()})
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), userID, service.ListTasksQuery{
		Search:     req.Search,
		Status:     model.Status(req.Status),
		Priority:   model.Priority(req.Priority),
		Sort:       service.SortKey(req.Sort),
		Descending: req.Order == "desc",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		response = append(response, toTaskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": response})
}

// GetStats godoc
// @Summary      Task counters for the dashboard
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]service.TaskStats
// @Router       /api/tasks/stats [get]
func (h *TaskHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.tasks.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetTask godoc
// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  map[string]TaskResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

// CreateTask godoc
// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CreateTaskRequest  true  "Task"
// @Success      201   {object}  map[string]TaskResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Recurrence:   req.Recurrence,
		DependsOnIDs: req.DependsOnIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": toTaskResponse(task)})
}

// UpdateTask godoc
// @Summary      Partially update a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      UpdateTaskRequest  true  "Changed fields"
// @Success      200   {object}  map[string]TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), userID, taskID, service.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		Recurrence:   req.Recurrence,
		DependsOnIDs: req.DependsOnIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

// DeleteTask godoc
// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), userID, taskID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func taskIDParam(c *gin.Context) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return uuid.Nil, false
	}
	return taskID, true
}
