package task

import (
	"time"

	"github.com/google/uuid"
)

// TaskType represents the kind of work a task carries.
type TaskType string

const (
	TypeReminder  TaskType = "reminder"
	TypePeriodic  TaskType = "periodic_task"
	TypeAutomated TaskType = "automated_task"
	TypeCustom    TaskType = "custom"
)

// IsValid checks if the task type is valid
func (t TaskType) IsValid() bool {
	switch t {
	case TypeReminder, TypePeriodic, TypeAutomated, TypeCustom:
		return true
	default:
		return false
	}
}

// ScheduleType represents how a task repeats.
type ScheduleType string

const (
	ScheduleOnce    ScheduleType = "once"
	ScheduleDaily   ScheduleType = "daily"
	ScheduleWeekly  ScheduleType = "weekly"
	ScheduleMonthly ScheduleType = "monthly"
	ScheduleYearly  ScheduleType = "yearly"
	ScheduleCustom  ScheduleType = "custom"
)

// IsValid checks if the schedule type is valid
func (s ScheduleType) IsValid() bool {
	switch s {
	case ScheduleOnce, ScheduleDaily, ScheduleWeekly, ScheduleMonthly, ScheduleYearly, ScheduleCustom:
		return true
	default:
		return false
	}
}

// IsRecurring reports whether the schedule type produces more than one run.
func (s ScheduleType) IsRecurring() bool {
	return s.IsValid() && s != ScheduleOnce
}

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	StatusActive     TaskStatus = "active"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusPaused     TaskStatus = "paused"
	StatusCancelled  TaskStatus = "cancelled"
)

// IsValid checks if the task status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusProcessing, StatusCompleted, StatusFailed, StatusPaused, StatusCancelled:
		return true
	default:
		return false
	}
}

// Channel identifies a notification transport.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
)

// IsValid checks if the channel is known
func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelPush, ChannelInApp:
		return true
	default:
		return false
	}
}

// ScheduleConfig carries the schedule parameters; which fields are meaningful
// depends on the schedule type.
type ScheduleConfig struct {
	RunAt           *time.Time `json:"runAt,omitempty"`           // once
	Hour            int        `json:"hour"`                      // daily/weekly/monthly/yearly
	Minute          int        `json:"minute"`                    // daily/weekly/monthly/yearly
	IntervalDays    int        `json:"intervalDays,omitempty"`    // daily, default 1
	Weekdays        []int      `json:"weekdays,omitempty"`        // weekly, 0=Monday .. 6=Sunday
	IntervalWeeks   int        `json:"intervalWeeks,omitempty"`   // weekly, default 1
	DayOfMonth      int        `json:"dayOfMonth,omitempty"`      // monthly, 1-31, clamped to month length
	IntervalMonths  int        `json:"intervalMonths,omitempty"`  // monthly, default 1
	Month           int        `json:"month,omitempty"`           // yearly, 1-12
	Day             int        `json:"day,omitempty"`             // yearly, 1-31
	IntervalYears   int        `json:"intervalYears,omitempty"`   // yearly, default 1
	IntervalMinutes int        `json:"intervalMinutes,omitempty"` // custom
	EndDate         *time.Time `json:"endDate,omitempty"`
	MaxOccurrences  *int       `json:"maxOccurrences,omitempty"`
}

// QualityFlags is the machine-readable record extracted from the most recent
// executor response. Downstream delivery/UX layers consume it; it never gates
// retries.
type QualityFlags struct {
	HasAcknowledgment bool `json:"hasAcknowledgment"`
	HasActions        bool `json:"hasActions"`
	HasSummary        bool `json:"hasSummary"`
	HasEncouragement  bool `json:"hasEncouragement"`
	IsStructured      bool `json:"isStructured"`
	ResponseLength    int  `json:"responseLength"`
}

// Task represents a persisted unit of future work with a schedule and
// notification channels.
type Task struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"userId"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Type             TaskType       `json:"taskType"`
	ScheduleType     ScheduleType   `json:"scheduleType"`
	ScheduleConfig   ScheduleConfig `json:"scheduleConfig"`
	NextRunAt        *time.Time     `json:"nextRunAt"` // non-nil iff status is active or processing
	LastRunAt        *time.Time     `json:"lastRunAt"`
	Status           TaskStatus     `json:"status"`
	Channels         []Channel      `json:"notificationChannels"`
	AIContext        string         `json:"aiContext,omitempty"`
	LastResult       string         `json:"lastResult,omitempty"`
	LastQualityScore *float64       `json:"lastQualityScore,omitempty"`
	LastQualityFlags *QualityFlags  `json:"lastQualityFlags,omitempty"`
	DeliveryWarnings []string       `json:"deliveryWarnings,omitempty"`
	RunCount         int            `json:"runCount"`
	RetryCount       int            `json:"retryCount"`
	MaxRetries       int            `json:"maxRetries"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// NewTask creates an active task owned by userID. NextRunAt must be filled by
// the caller before insert (manager computes it via the schedule calculator).
func NewTask(userID uuid.UUID, req CreateTaskRequest, now time.Time) *Task {
	maxRetries := 3
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	return &Task{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.TaskType,
		ScheduleType:   req.ScheduleType,
		ScheduleConfig: req.ScheduleConfig,
		Status:         StatusActive,
		Channels:       req.Channels,
		AIContext:      req.AIContext,
		MaxRetries:     maxRetries,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ToResponse converts Task to TaskResponse
func (t *Task) ToResponse() TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		UserID:           t.UserID,
		Title:            t.Title,
		Description:      t.Description,
		TaskType:         t.Type,
		ScheduleType:     t.ScheduleType,
		ScheduleConfig:   t.ScheduleConfig,
		NextRunAt:        t.NextRunAt,
		LastRunAt:        t.LastRunAt,
		Status:           t.Status,
		Channels:         t.Channels,
		AIContext:        t.AIContext,
		LastResult:       t.LastResult,
		LastQualityScore: t.LastQualityScore,
		LastQualityFlags: t.LastQualityFlags,
		DeliveryWarnings: t.DeliveryWarnings,
		RunCount:         t.RunCount,
		RetryCount:       t.RetryCount,
		MaxRetries:       t.MaxRetries,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// CreateReminderRequest represents a request to create a one-shot reminder
type CreateReminderRequest struct {
	Text    string  `json:"text" binding:"required,min=1,max=1024"`
	Time    string  `json:"time" binding:"required"` // natural language or ISO, see timeparse
	Channel Channel `json:"channel" binding:"required"`
}

// CreateTaskRequest represents a request to create a new task
type CreateTaskRequest struct {
	Title          string         `json:"title" binding:"required,min=1,max=1024"`
	Description    string         `json:"description" binding:"max=4000"`
	TaskType       TaskType       `json:"taskType" binding:"required"`
	ScheduleType   ScheduleType   `json:"scheduleType" binding:"required"`
	ScheduleConfig ScheduleConfig `json:"scheduleConfig"`
	Channels       []Channel      `json:"notificationChannels" binding:"required"`
	AIContext      string         `json:"aiContext"`
	MaxRetries     *int           `json:"maxRetries"`
}

// UpdateTaskRequest represents a request to update a task; nil fields are
// left untouched.
type UpdateTaskRequest struct {
	Title          *string         `json:"title" binding:"omitempty,min=1,max=1024"`
	Description    *string         `json:"description" binding:"omitempty,max=4000"`
	TaskType       *TaskType       `json:"taskType"`
	ScheduleType   *ScheduleType   `json:"scheduleType"`
	ScheduleConfig *ScheduleConfig `json:"scheduleConfig"`
	Channels       *[]Channel      `json:"notificationChannels"`
	AIContext      *string         `json:"aiContext"`
	MaxRetries     *int            `json:"maxRetries"`
	NextRunAt      *time.Time      `json:"nextRunAt"`
}

// TouchesSchedule reports whether the patch changes any scheduling field.
func (r UpdateTaskRequest) TouchesSchedule() bool {
	return r.ScheduleType != nil || r.ScheduleConfig != nil
}

// ListTasksRequest represents filtering options for listing tasks
type ListTasksRequest struct {
	Status   *TaskStatus `form:"status"`
	TaskType *TaskType   `form:"taskType"`
	Offset   int         `form:"offset"`
	Limit    int         `form:"limit"`
}

// TaskResponse represents the response format for a task
type TaskResponse struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"userId"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	TaskType         TaskType       `json:"taskType"`
	ScheduleType     ScheduleType   `json:"scheduleType"`
	ScheduleConfig   ScheduleConfig `json:"scheduleConfig"`
	NextRunAt        *time.Time     `json:"nextRunAt"`
	LastRunAt        *time.Time     `json:"lastRunAt"`
	Status           TaskStatus     `json:"status"`
	Channels         []Channel      `json:"notificationChannels"`
	AIContext        string         `json:"aiContext,omitempty"`
	LastResult       string         `json:"lastResult,omitempty"`
	LastQualityScore *float64       `json:"lastQualityScore,omitempty"`
	LastQualityFlags *QualityFlags  `json:"lastQualityFlags,omitempty"`
	DeliveryWarnings []string       `json:"deliveryWarnings,omitempty"`
	RunCount         int            `json:"runCount"`
	RetryCount       int            `json:"retryCount"`
	MaxRetries       int            `json:"maxRetries"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}
