package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/pkg/Logger"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskManager task.TaskManager
	logger      *Logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskManager task.TaskManager, logger *Logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskManager: taskManager,
		logger:      logger,
	}
}

// CreateTask handles task creation
// @Summary Create a new task
// @Description Create a new scheduled task for the authenticated user
// @Tags Tasks
// @Accept json
// @Produce json
// @Param request body task.CreateTaskRequest true "Task creation data"
// @Success 201 {object} CreateTaskResponse "Task created successfully"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req task.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	taskResponse, err := h.taskManager.CreateTask(c.Request.Context(), userID, req)
	if err != nil {
		h.respondTaskError(c, "create task", err)
		return
	}

	c.JSON(http.StatusCreated, CreateTaskResponse{
		Message: "Task created successfully",
		Task:    *taskResponse,
	})
}

// CreateReminder handles one-shot reminder creation
// @Summary Create a reminder
// @Description Create a one-shot reminder from a natural-language or ISO time
// @Tags Tasks
// @Accept json
// @Produce json
// @Param request body task.CreateReminderRequest true "Reminder creation data"
// @Success 201 {object} CreateTaskResponse "Reminder created successfully"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reminders [post]
func (h *TaskHandler) CreateReminder(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req task.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	taskResponse, err := h.taskManager.CreateReminder(c.Request.Context(), userID, req)
	if err != nil {
		h.respondTaskError(c, "create reminder", err)
		return
	}

	c.JSON(http.StatusCreated, CreateTaskResponse{
		Message: "Reminder created successfully",
		Task:    *taskResponse,
	})
}

// GetTask handles getting a specific task
// @Summary Get task by ID
// @Description Get a specific task by ID (user can only access their own tasks)
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse "Task data"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 404 {object} ErrorResponse "Task not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	taskResponse, err := h.taskManager.GetTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondTaskError(c, "get task", err)
		return
	}

	c.JSON(http.StatusOK, TaskResponse{Task: *taskResponse})
}

// ListTasks handles listing the user's tasks
// @Summary List tasks
// @Description List the authenticated user's tasks, optionally filtered by status and type
// @Tags Tasks
// @Accept json
// @Produce json
// @Param status query string false "Filter by status"
// @Param taskType query string false "Filter by task type"
// @Param offset query int false "Pagination offset"
// @Param limit query int false "Pagination limit"
// @Success 200 {object} ListTasksResponse "Tasks"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var filters task.ListTasksRequest
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	tasks, err := h.taskManager.ListTasks(c.Request.Context(), userID, filters)
	if err != nil {
		h.respondTaskError(c, "list tasks", err)
		return
	}

	c.JSON(http.StatusOK, ListTasksResponse{
		Tasks: tasks,
		Pagination: PaginationInfo{
			Total:  int64(len(tasks)),
			Offset: filters.Offset,
			Limit:  filters.Limit,
		},
	})
}

// UpdateTask handles updating a task
// @Summary Update task
// @Description Update a specific task; schedule changes recompute the next run
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body task.UpdateTaskRequest true "Task update data"
// @Success 200 {object} UpdateTaskResponse "Task updated successfully"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 404 {object} ErrorResponse "Task not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req task.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	taskResponse, err := h.taskManager.UpdateTask(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.respondTaskError(c, "update task", err)
		return
	}

	c.JSON(http.StatusOK, UpdateTaskResponse{
		Message: "Task updated successfully",
		Task:    *taskResponse,
	})
}

// DeleteTask handles deleting a task
// @Summary Delete task
// @Description Delete a task; deleting an already-deleted task succeeds
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} SuccessResponse "Task deleted"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.taskManager.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondTaskError(c, "delete task", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Task deleted successfully"})
}

// PauseTask handles pausing a task
// @Summary Pause task
// @Description Pause an active task; the scheduler stops picking it up
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} UpdateTaskResponse "Task paused"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 404 {object} ErrorResponse "Task not found"
// @Failure 409 {object} ErrorResponse "Invalid state transition"
// @Router /tasks/{id}/pause [post]
func (h *TaskHandler) PauseTask(c *gin.Context) {
	h.transition(c, "pause task", h.taskManager.PauseTask)
}

// ResumeTask handles resuming a paused task
// @Summary Resume task
// @Description Resume a paused task; the next run is recomputed from now
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} UpdateTaskResponse "Task resumed"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 404 {object} ErrorResponse "Task not found"
// @Failure 409 {object} ErrorResponse "Invalid state transition"
// @Router /tasks/{id}/resume [post]
func (h *TaskHandler) ResumeTask(c *gin.Context) {
	h.transition(c, "resume task", h.taskManager.ResumeTask)
}

// CancelTask handles cancelling a task
// @Summary Cancel task
// @Description Cancel a task; cancelled tasks keep their history but never run again
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} UpdateTaskResponse "Task cancelled"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 404 {object} ErrorResponse "Task not found"
// @Failure 409 {object} ErrorResponse "Invalid state transition"
// @Router /tasks/{id}/cancel [post]
func (h *TaskHandler) CancelTask(c *gin.Context) {
	h.transition(c, "cancel task", h.taskManager.CancelTask)
}

// CalculateNextRun previews scheduling for a config without persisting
// @Summary Preview next run
// @Description Compute the next run instant for a schedule without creating a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param request body NextRunRequest true "Schedule to preview"
// @Success 200 {object} NextRunResponse "Next run instant, null when the schedule is exhausted"
// @Failure 400 {object} ErrorResponse "Invalid schedule"
// @Router /tasks/next-run [post]
func (h *TaskHandler) CalculateNextRun(c *gin.Context) {
	var req NextRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	next, err := h.taskManager.CalculateNextRun(c.Request.Context(), req.ScheduleType, req.ScheduleConfig)
	if err != nil {
		h.respondTaskError(c, "calculate next run", err)
		return
	}

	c.JSON(http.StatusOK, NextRunResponse{NextRunAt: next})
}

func (h *TaskHandler) transition(
	c *gin.Context,
	op string,
	fn func(ctx context.Context, userID, taskID string) (*task.TaskResponse, error),
) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	taskResponse, err := fn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondTaskError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, UpdateTaskResponse{
		Message: "Task updated successfully",
		Task:    *taskResponse,
	})
}

// respondTaskError maps domain errors onto HTTP statuses.
func (h *TaskHandler) respondTaskError(c *gin.Context, op string, err error) {
	var validationErr *task.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid task data",
			Details: validationErr.Error(),
		})
	case errors.Is(err, task.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Task not found"})
	case errors.Is(err, task.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Invalid state transition"})
	case errors.Is(err, task.ErrDuplicateTask):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Task already exists"})
	default:
		h.logger.Errorf("%s error: %v", op, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
