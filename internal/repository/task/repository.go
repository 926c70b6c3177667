package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// GormTaskRepo persists tasks in MySQL through GORM. The atomic claim and
// release writes here are what make concurrent pollers safe.
type GormTaskRepo struct {
	db *gorm.DB
}

// NewGormTaskRepo creates a new GORM-based task repository
func NewGormTaskRepo(db *gorm.DB) task.TaskRepository {
	return &GormTaskRepo{db: db}
}

// Insert implements task.TaskRepository
func (g *GormTaskRepo) Insert(ctx context.Context, t *task.Task) error {
	entity := NewTaskEntityFromDomain(t)
	if err := g.db.WithContext(ctx).Create(entity).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return task.ErrDuplicateTask
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	*t = *entity.ToDomain()
	return nil
}

// Get implements task.TaskRepository
func (g *GormTaskRepo) Get(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var entity TaskEntity
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return entity.ToDomain(), nil
}

// Update implements task.TaskRepository
func (g *GormTaskRepo) Update(ctx context.Context, id uuid.UUID, patch task.UpdateTaskRequest) (*task.Task, error) {
	var entity TaskEntity
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task for update: %w", err)
	}

	updateMap := make(map[string]interface{})

	if patch.Title != nil {
		updateMap["title"] = *patch.Title
	}
	if patch.Description != nil {
		updateMap["description"] = *patch.Description
	}
	if patch.TaskType != nil {
		updateMap["task_type"] = string(*patch.TaskType)
	}
	if patch.ScheduleType != nil {
		updateMap["schedule_type"] = string(*patch.ScheduleType)
	}
	if patch.ScheduleConfig != nil {
		sc := ScheduleConfigJSON(*patch.ScheduleConfig)
		updateMap["schedule_config"] = &sc
	}
	if patch.Channels != nil {
		channels := make(ChannelList, len(*patch.Channels))
		for i, c := range *patch.Channels {
			channels[i] = string(c)
		}
		updateMap["notification_channels"] = channels
	}
	if patch.AIContext != nil {
		updateMap["ai_context"] = *patch.AIContext
	}
	if patch.MaxRetries != nil {
		updateMap["max_retries"] = *patch.MaxRetries
	}
	if patch.NextRunAt != nil {
		updateMap["next_run_at"] = patch.NextRunAt
	}

	if len(updateMap) > 0 {
		if err := g.db.WithContext(ctx).Model(&entity).Updates(updateMap).Error; err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, fmt.Errorf("failed to get updated task: %w", err)
	}

	return entity.ToDomain(), nil
}

// Delete implements task.TaskRepository
func (g *GormTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := g.db.WithContext(ctx).Where("id = ?", id).Delete(&TaskEntity{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// ListByUser implements task.TaskRepository
func (g *GormTaskRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter task.ListTasksRequest) ([]task.Task, error) {
	query := g.db.WithContext(ctx).Model(&TaskEntity{}).Where("user_id = ?", userID)

	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.TaskType != nil {
		query = query.Where("task_type = ?", string(*filter.TaskType))
	}

	query = query.Order("next_run_at IS NULL, next_run_at ASC, created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var entities []TaskEntity
	if err := query.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]task.Task, len(entities))
	for i, entity := range entities {
		tasks[i] = *entity.ToDomain()
	}
	return tasks, nil
}

// DueBefore implements task.TaskRepository
func (g *GormTaskRepo) DueBefore(ctx context.Context, t time.Time, limit int) ([]task.Task, error) {
	query := g.db.WithContext(ctx).
		Where("status = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", string(task.StatusActive), t).
		Order("next_run_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entities []TaskEntity
	if err := query.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to get due tasks: %w", err)
	}

	tasks := make([]task.Task, len(entities))
	for i, entity := range entities {
		tasks[i] = *entity.ToDomain()
	}
	return tasks, nil
}

// ClaimForProcessing implements task.TaskRepository. The conditional update
// is the single compare-and-swap keeping one execution per task: only one of
// N racing workers sees RowsAffected == 1.
func (g *GormTaskRepo) ClaimForProcessing(ctx context.Context, id uuid.UUID, now time.Time) error {
	result := g.db.WithContext(ctx).Model(&TaskEntity{}).
		Where("id = ? AND status = ?", id, string(task.StatusActive)).
		Updates(map[string]interface{}{
			"status":      string(task.StatusProcessing),
			"last_run_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to claim task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := g.db.WithContext(ctx).Model(&TaskEntity{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check task existence: %w", err)
		}
		if count == 0 {
			return task.ErrTaskNotFound
		}
		return task.ErrAlreadyClaimed
	}
	return nil
}

// FindStuck implements task.TaskRepository
func (g *GormTaskRepo) FindStuck(ctx context.Context, cutoff time.Time) ([]task.Task, error) {
	var entities []TaskEntity
	if err := g.db.WithContext(ctx).
		Where("status = ? AND last_run_at IS NOT NULL AND last_run_at < ?", string(task.StatusProcessing), cutoff).
		Order("last_run_at ASC").
		Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to scan for stuck tasks: %w", err)
	}

	tasks := make([]task.Task, len(entities))
	for i, entity := range entities {
		tasks[i] = *entity.ToDomain()
	}
	return tasks, nil
}

// Release implements task.TaskRepository
func (g *GormTaskRepo) Release(ctx context.Context, id uuid.UUID, next task.TaskStatus, patch task.ReleasePatch) (*task.Task, error) {
	var entity TaskEntity
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task for release: %w", err)
	}

	updateMap := map[string]interface{}{
		"status": string(next),
	}

	if patch.ClearNextRun {
		updateMap["next_run_at"] = nil
	} else if patch.NextRunAt != nil {
		updateMap["next_run_at"] = patch.NextRunAt
	}
	if patch.LastResult != nil {
		updateMap["last_result"] = *patch.LastResult
	}
	if patch.QualityScore != nil {
		updateMap["last_quality_score"] = *patch.QualityScore
	}
	if patch.QualityFlags != nil {
		qf := QualityFlagsJSON(*patch.QualityFlags)
		updateMap["last_quality_flags"] = &qf
	}
	if patch.DeliveryWarnings != nil {
		updateMap["delivery_warnings"] = WarningList(patch.DeliveryWarnings)
	}
	if patch.RetryCount != nil {
		updateMap["retry_count"] = *patch.RetryCount
	}
	if patch.RunCountDelta != 0 {
		updateMap["run_count"] = entity.RunCount + patch.RunCountDelta
	}

	if err := g.db.WithContext(ctx).Model(&entity).Updates(updateMap).Error; err != nil {
		return nil, fmt.Errorf("failed to release task: %w", err)
	}

	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, fmt.Errorf("failed to get released task: %w", err)
	}
	return entity.ToDomain(), nil
}

// SetDeliveryWarnings implements task.TaskRepository
func (g *GormTaskRepo) SetDeliveryWarnings(ctx context.Context, id uuid.UUID, warnings []string) error {
	result := g.db.WithContext(ctx).Model(&TaskEntity{}).
		Where("id = ?", id).
		Update("delivery_warnings", WarningList(warnings))
	if result.Error != nil {
		return fmt.Errorf("failed to record delivery warnings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}
