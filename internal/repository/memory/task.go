// Package memory provides an in-memory TaskRepository. It mirrors the
// concurrency contract of the MySQL repository (claim is a compare-and-swap
// under one lock) so engine behavior can be tested without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/task"
)

type TaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]task.Task
}

// NewTaskRepo creates an empty in-memory repository.
func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: make(map[uuid.UUID]task.Task)}
}

// Insert implements task.TaskRepository
func (r *TaskRepo) Insert(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return task.ErrDuplicateTask
	}
	r.tasks[t.ID] = *t
	return nil
}

// Get implements task.TaskRepository
func (r *TaskRepo) Get(_ context.Context, id uuid.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	copied := t
	return &copied, nil
}

// Update implements task.TaskRepository
func (r *TaskRepo) Update(_ context.Context, id uuid.UUID, patch task.UpdateTaskRequest) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.TaskType != nil {
		t.Type = *patch.TaskType
	}
	if patch.ScheduleType != nil {
		t.ScheduleType = *patch.ScheduleType
	}
	if patch.ScheduleConfig != nil {
		t.ScheduleConfig = *patch.ScheduleConfig
	}
	if patch.Channels != nil {
		t.Channels = append([]task.Channel(nil), (*patch.Channels)...)
	}
	if patch.AIContext != nil {
		t.AIContext = *patch.AIContext
	}
	if patch.MaxRetries != nil {
		t.MaxRetries = *patch.MaxRetries
	}
	if patch.NextRunAt != nil {
		t.NextRunAt = patch.NextRunAt
	}
	t.UpdatedAt = time.Now()

	r.tasks[id] = t
	copied := t
	return &copied, nil
}

// Delete implements task.TaskRepository
func (r *TaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return task.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// ListByUser implements task.TaskRepository
func (r *TaskRepo) ListByUser(_ context.Context, userID uuid.UUID, filter task.ListTasksRequest) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []task.Task
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.TaskType != nil && t.Type != *filter.TaskType {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].NextRunAt, out[j].NextRunAt
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// DueBefore implements task.TaskRepository
func (r *TaskRepo) DueBefore(_ context.Context, at time.Time, limit int) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []task.Task
	for _, t := range r.tasks {
		if t.Status != task.StatusActive || t.NextRunAt == nil {
			continue
		}
		if t.NextRunAt.After(at) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextRunAt.Before(*out[j].NextRunAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ClaimForProcessing implements task.TaskRepository
func (r *TaskRepo) ClaimForProcessing(_ context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return task.ErrTaskNotFound
	}
	if t.Status != task.StatusActive {
		return task.ErrAlreadyClaimed
	}

	t.Status = task.StatusProcessing
	stamp := now
	t.LastRunAt = &stamp
	t.UpdatedAt = now
	r.tasks[id] = t
	return nil
}

// FindStuck implements task.TaskRepository
func (r *TaskRepo) FindStuck(_ context.Context, cutoff time.Time) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []task.Task
	for _, t := range r.tasks {
		if t.Status != task.StatusProcessing || t.LastRunAt == nil {
			continue
		}
		if t.LastRunAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastRunAt.Before(*out[j].LastRunAt)
	})
	return out, nil
}

// Release implements task.TaskRepository
func (r *TaskRepo) Release(_ context.Context, id uuid.UUID, next task.TaskStatus, patch task.ReleasePatch) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}

	t.Status = next
	if patch.ClearNextRun {
		t.NextRunAt = nil
	} else if patch.NextRunAt != nil {
		at := *patch.NextRunAt
		t.NextRunAt = &at
	}
	if patch.LastResult != nil {
		t.LastResult = *patch.LastResult
	}
	if patch.QualityScore != nil {
		score := *patch.QualityScore
		t.LastQualityScore = &score
	}
	if patch.QualityFlags != nil {
		flags := *patch.QualityFlags
		t.LastQualityFlags = &flags
	}
	if patch.DeliveryWarnings != nil {
		t.DeliveryWarnings = append([]string(nil), patch.DeliveryWarnings...)
	}
	if patch.RetryCount != nil {
		t.RetryCount = *patch.RetryCount
	}
	t.RunCount += patch.RunCountDelta
	t.UpdatedAt = time.Now()

	r.tasks[id] = t
	copied := t
	return &copied, nil
}

// SetDeliveryWarnings implements task.TaskRepository
func (r *TaskRepo) SetDeliveryWarnings(_ context.Context, id uuid.UUID, warnings []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return task.ErrTaskNotFound
	}
	t.DeliveryWarnings = append([]string(nil), warnings...)
	r.tasks[id] = t
	return nil
}
