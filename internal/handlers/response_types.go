package handlers

import (
	"time"

	"github.com/xpanvictor/chrono/internal/domains/task"
)

// Response wrapper types for Swagger documentation

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Total  int64 `json:"total" example:"150"`
	Offset int   `json:"offset" example:"0"`
	Limit  int   `json:"limit" example:"20"`
}

// CreateTaskResponse represents the response for task creation
type CreateTaskResponse struct {
	Message string            `json:"message" example:"Task created successfully"`
	Task    task.TaskResponse `json:"task"`
}

// TaskResponse represents the response for getting a single task
type TaskResponse struct {
	Task task.TaskResponse `json:"task"`
}

// UpdateTaskResponse represents the response for updating a task
type UpdateTaskResponse struct {
	Message string            `json:"message" example:"Task updated successfully"`
	Task    task.TaskResponse `json:"task"`
}

// ListTasksResponse represents the response for listing tasks
type ListTasksResponse struct {
	Tasks      []task.TaskResponse `json:"tasks"`
	Pagination PaginationInfo      `json:"pagination"`
}

// NextRunRequest represents the request for previewing a schedule
type NextRunRequest struct {
	ScheduleType   task.ScheduleType   `json:"scheduleType" binding:"required"`
	ScheduleConfig task.ScheduleConfig `json:"scheduleConfig"`
}

// NextRunResponse represents the response for a schedule preview
type NextRunResponse struct {
	NextRunAt *time.Time `json:"nextRunAt"`
}
