package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/pkg/Logger"
	"github.com/xpanvictor/chrono/pkg/clock"
)

// NextRunCalculator computes the next due instant for a schedule; nil means
// the schedule is exhausted. Implemented by internal/domains/schedule.
type NextRunCalculator interface {
	Next(st ScheduleType, cfg ScheduleConfig, anchor time.Time, fired int) (*time.Time, error)
}

// TimeParser resolves natural-language or ISO time strings against the
// engine clock. Implemented by internal/domains/timeparse.
type TimeParser interface {
	Parse(input string) (time.Time, error)
}

// TaskManager is the management API facade over the repository, validator,
// time parser and schedule calculator. Every operation carries the calling
// user id; ownership mismatches surface as ErrTaskNotFound so existence is
// not leaked.
type TaskManager interface {
	CreateReminder(ctx context.Context, userID string, req CreateReminderRequest) (*TaskResponse, error)
	CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, userID, taskID string) (*TaskResponse, error)
	ListTasks(ctx context.Context, userID string, filters ListTasksRequest) ([]TaskResponse, error)
	UpdateTask(ctx context.Context, userID, taskID string, req UpdateTaskRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	PauseTask(ctx context.Context, userID, taskID string) (*TaskResponse, error)
	ResumeTask(ctx context.Context, userID, taskID string) (*TaskResponse, error)
	CancelTask(ctx context.Context, userID, taskID string) (*TaskResponse, error)

	// CalculateNextRun previews scheduling without persisting anything.
	CalculateNextRun(ctx context.Context, st ScheduleType, cfg ScheduleConfig) (*time.Time, error)
}

type taskManager struct {
	repository TaskRepository
	calculator NextRunCalculator
	parser     TimeParser
	clock      clock.Clock
	logger     *Logger.Logger
}

// NewTaskManager creates a task manager.
func NewTaskManager(
	repository TaskRepository,
	calculator NextRunCalculator,
	parser TimeParser,
	clk clock.Clock,
	logger *Logger.Logger,
) TaskManager {
	return &taskManager{
		repository: repository,
		calculator: calculator,
		parser:     parser,
		clock:      clk,
		logger:     logger,
	}
}

// CreateReminder implements TaskManager
func (m *taskManager) CreateReminder(ctx context.Context, userID string, req CreateReminderRequest) (*TaskResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	runAt, err := m.parser.Parse(req.Time)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Field: "time", Reason: err.Error()}}}
	}

	now := m.clock.Now()
	t := NewTask(userUUID, CreateTaskRequest{
		Title:          req.Text,
		TaskType:       TypeReminder,
		ScheduleType:   ScheduleOnce,
		ScheduleConfig: ScheduleConfig{RunAt: &runAt},
		Channels:       []Channel{req.Channel},
	}, now)
	t.NextRunAt = &runAt

	if issues := ValidateTask(t, now, false); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	if err := m.repository.Insert(ctx, t); err != nil {
		m.logger.Errorf("error creating reminder: %v", err)
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	m.logger.Infof("reminder created: %s for user %s at %s", t.ID, userID, runAt.Format(time.RFC3339))
	response := t.ToResponse()
	return &response, nil
}

// CreateTask implements TaskManager
func (m *taskManager) CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*TaskResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	now := m.clock.Now()
	t := NewTask(userUUID, req, now)

	if issues := ValidateTask(t, now, true); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	next, err := m.calculator.Next(t.ScheduleType, t.ScheduleConfig, now, 0)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Field: "scheduleConfig", Reason: err.Error()}}}
	}
	if next == nil {
		return nil, &ValidationError{Issues: []Issue{{Field: "scheduleConfig", Reason: "schedule produces no future runs"}}}
	}
	t.NextRunAt = next

	if issues := ValidateTask(t, now, false); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	if err := m.repository.Insert(ctx, t); err != nil {
		m.logger.Errorf("error creating task: %v", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	m.logger.Infof("task created: %s for user %s, next run %s", t.ID, userID, next.Format(time.RFC3339))
	response := t.ToResponse()
	return &response, nil
}

// GetTask implements TaskManager
func (m *taskManager) GetTask(ctx context.Context, userID, taskID string) (*TaskResponse, error) {
	t, err := m.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	response := t.ToResponse()
	return &response, nil
}

// ListTasks implements TaskManager
func (m *taskManager) ListTasks(ctx context.Context, userID string, filters ListTasksRequest) ([]TaskResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	tasks, err := m.repository.ListByUser(ctx, userUUID, filters)
	if err != nil {
		m.logger.Errorf("error listing tasks: %v", err)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	responses := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = t.ToResponse()
	}
	return responses, nil
}

// UpdateTask implements TaskManager
func (m *taskManager) UpdateTask(ctx context.Context, userID, taskID string, req UpdateTaskRequest) (*TaskResponse, error) {
	existing, err := m.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	merged := *existing
	applyPatch(&merged, req)

	if issues := ValidateTask(&merged, now, true); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	// A schedule change restarts scheduling from now for live tasks.
	if req.TouchesSchedule() && (existing.Status == StatusActive || existing.Status == StatusPaused) {
		next, err := m.calculator.Next(merged.ScheduleType, merged.ScheduleConfig, now, 0)
		if err != nil {
			return nil, &ValidationError{Issues: []Issue{{Field: "scheduleConfig", Reason: err.Error()}}}
		}
		if next == nil {
			return nil, &ValidationError{Issues: []Issue{{Field: "scheduleConfig", Reason: "schedule produces no future runs"}}}
		}
		if existing.Status == StatusActive {
			req.NextRunAt = next
		}
	}

	updated, err := m.repository.Update(ctx, existing.ID, req)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		m.logger.Errorf("error updating task: %v", err)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	m.logger.Infof("task updated: %s", taskID)
	response := updated.ToResponse()
	return &response, nil
}

// DeleteTask implements TaskManager. Deletion is idempotent: deleting an
// already-deleted task succeeds.
func (m *taskManager) DeleteTask(ctx context.Context, userID, taskID string) error {
	existing, err := m.getOwned(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil
		}
		return err
	}

	if err := m.repository.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil
		}
		m.logger.Errorf("error deleting task: %v", err)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	m.logger.Infof("task deleted: %s", taskID)
	return nil
}

// PauseTask implements TaskManager
func (m *taskManager) PauseTask(ctx context.Context, userID, taskID string) (*TaskResponse, error) {
	return m.transitionOwned(ctx, userID, taskID, EventPause, nil)
}

// ResumeTask implements TaskManager
func (m *taskManager) ResumeTask(ctx context.Context, userID, taskID string) (*TaskResponse, error) {
	existing, err := m.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	next, err := m.calculator.Next(existing.ScheduleType, existing.ScheduleConfig, m.clock.Now(), existing.RunCount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next run: %w", err)
	}
	if next == nil {
		return nil, &ValidationError{Issues: []Issue{{Field: "scheduleConfig", Reason: "schedule produces no future runs"}}}
	}
	return m.transitionOwned(ctx, userID, taskID, EventResume, next)
}

// CancelTask implements TaskManager
func (m *taskManager) CancelTask(ctx context.Context, userID, taskID string) (*TaskResponse, error) {
	return m.transitionOwned(ctx, userID, taskID, EventCancel, nil)
}

// CalculateNextRun implements TaskManager
func (m *taskManager) CalculateNextRun(ctx context.Context, st ScheduleType, cfg ScheduleConfig) (*time.Time, error) {
	if issues := ValidateScheduleConfig(st, cfg); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return m.calculator.Next(st, cfg, m.clock.Now(), 0)
}

// getOwned fetches the task and enforces ownership; a mismatch reads as
// not-found so callers cannot probe for foreign task ids.
func (m *taskManager) getOwned(ctx context.Context, userID, taskID string) (*Task, error) {
	taskUUID, err := uuid.Parse(taskID)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	t, err := m.repository.Get(ctx, taskUUID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		m.logger.Errorf("error getting task: %v", err)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if t.UserID.String() != userID {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (m *taskManager) transitionOwned(ctx context.Context, userID, taskID, event string, nextRunAt *time.Time) (*TaskResponse, error) {
	existing, err := m.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	next, err := Transition(existing.Status, event)
	if err != nil {
		return nil, err
	}

	updated, err := m.repository.Release(ctx, existing.ID, next, ReleasePatch{
		NextRunAt:    nextRunAt,
		ClearNextRun: nextRunAt == nil,
	})
	if err != nil {
		m.logger.Errorf("error transitioning task %s via %s: %v", taskID, event, err)
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	m.logger.Infof("task %s: %s -> %s", taskID, existing.Status, next)
	response := updated.ToResponse()
	return &response, nil
}

func applyPatch(t *Task, req UpdateTaskRequest) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.TaskType != nil {
		t.Type = *req.TaskType
	}
	if req.ScheduleType != nil {
		t.ScheduleType = *req.ScheduleType
	}
	if req.ScheduleConfig != nil {
		t.ScheduleConfig = *req.ScheduleConfig
	}
	if req.Channels != nil {
		t.Channels = *req.Channels
	}
	if req.AIContext != nil {
		t.AIContext = *req.AIContext
	}
	if req.MaxRetries != nil {
		t.MaxRetries = *req.MaxRetries
	}
}
