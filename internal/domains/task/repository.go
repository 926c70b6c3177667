package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrDuplicateTask     = errors.New("task already exists")
	ErrAlreadyClaimed    = errors.New("task already claimed")
	ErrConflict          = errors.New("task update conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ReleasePatch is applied by the executor (and recovery) at the end of an
// execution attempt, together with the target status.
type ReleasePatch struct {
	NextRunAt        *time.Time
	ClearNextRun     bool
	LastResult       *string
	QualityScore     *float64
	QualityFlags     *QualityFlags
	DeliveryWarnings []string
	RetryCount       *int
	RunCountDelta    int
}

// TaskRepository defines the durable storage contract for tasks. The
// repository exclusively owns task persistence; every mutation goes through
// it, and in-memory task values held by callers are snapshots.
type TaskRepository interface {
	// Insert stores a new task; ErrDuplicateTask on id collision.
	Insert(ctx context.Context, t *Task) error

	// Get returns the task or ErrTaskNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Task, error)

	// Update applies the non-nil fields of the patch; ErrTaskNotFound when
	// missing.
	Update(ctx context.Context, id uuid.UUID, patch UpdateTaskRequest) (*Task, error)

	// Delete removes the task; ErrTaskNotFound when missing.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByUser returns the user's tasks narrowed by the filter, ordered by
	// next_run_at ascending.
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListTasksRequest) ([]Task, error)

	// DueBefore returns active tasks with next_run_at <= t, ordered
	// ascending, at most limit rows.
	DueBefore(ctx context.Context, t time.Time, limit int) ([]Task, error)

	// ClaimForProcessing atomically moves the task from active to processing,
	// stamping last_run_at = now. ErrAlreadyClaimed when the task is not in
	// active state; this is the single point enforcing at-most-one concurrent
	// execution per task.
	ClaimForProcessing(ctx context.Context, id uuid.UUID, now time.Time) error

	// FindStuck returns tasks still in processing whose last_run_at is older
	// than the cutoff.
	FindStuck(ctx context.Context, cutoff time.Time) ([]Task, error)

	// Release performs the end-of-execution transition to next status and
	// applies the patch in one write.
	Release(ctx context.Context, id uuid.UUID, next TaskStatus, patch ReleasePatch) (*Task, error)

	// SetDeliveryWarnings records notification failures after the execution
	// result has already been persisted.
	SetDeliveryWarnings(ctx context.Context, id uuid.UUID, warnings []string) error
}
