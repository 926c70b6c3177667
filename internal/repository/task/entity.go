package task

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"gorm.io/gorm"
)

// ChannelList is a custom type for handling JSON serialization of channels
type ChannelList []string

// Value implements driver.Valuer interface for GORM
func (c ChannelList) Value() (driver.Value, error) {
	if len(c) == 0 {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM
func (c *ChannelList) Scan(value interface{}) error {
	if value == nil {
		*c = ChannelList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		*c = ChannelList{}
		return nil
	}
}

// WarningList is a custom type for handling JSON serialization of delivery warnings
type WarningList []string

// Value implements driver.Valuer interface for GORM
func (w WarningList) Value() (driver.Value, error) {
	if len(w) == 0 {
		return "[]", nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner interface for GORM
func (w *WarningList) Scan(value interface{}) error {
	if value == nil {
		*w = WarningList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	default:
		*w = WarningList{}
		return nil
	}
}

// ScheduleConfigJSON is a custom type for handling JSON serialization of the schedule config
type ScheduleConfigJSON task.ScheduleConfig

// Value implements driver.Valuer interface for GORM
func (s ScheduleConfigJSON) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for GORM
func (s *ScheduleConfigJSON) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return nil
	}
}

// QualityFlagsJSON is a custom type for handling JSON serialization of quality flags
type QualityFlagsJSON task.QualityFlags

// Value implements driver.Valuer interface for GORM
func (q QualityFlagsJSON) Value() (driver.Value, error) {
	return json.Marshal(q)
}

// Scan implements sql.Scanner interface for GORM
func (q *QualityFlagsJSON) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	default:
		return nil
	}
}

// TaskEntity represents the database entity for Task with GORM tags
type TaskEntity struct {
	ID               uuid.UUID          `gorm:"primaryKey;type:char(36);not null"`
	UserID           uuid.UUID          `gorm:"column:user_id;type:char(36);not null;index:idx_user_status,priority:1"`
	Title            string             `gorm:"column:title;type:varchar(1024);not null"`
	Description      string             `gorm:"column:description;type:text"`
	TaskType         string             `gorm:"column:task_type;type:varchar(32);not null"`
	ScheduleType     string             `gorm:"column:schedule_type;type:varchar(16);not null"`
	ScheduleConfig   ScheduleConfigJSON `gorm:"type:json;column:schedule_config"`
	NextRunAt        *time.Time         `gorm:"column:next_run_at;index:idx_status_next,priority:2"`
	LastRunAt        *time.Time         `gorm:"column:last_run_at;index"`
	Status           string             `gorm:"column:status;type:varchar(16);not null;index:idx_status_next,priority:1;index:idx_user_status,priority:2;default:active"`
	Channels         ChannelList        `gorm:"type:json;column:notification_channels"`
	AIContext        string             `gorm:"column:ai_context;type:text"`
	LastResult       string             `gorm:"column:last_result;type:text"`
	LastQualityScore *float64           `gorm:"column:last_quality_score"`
	LastQualityFlags *QualityFlagsJSON  `gorm:"type:json;column:last_quality_flags"`
	DeliveryWarnings WarningList        `gorm:"type:json;column:delivery_warnings"`
	RunCount         int                `gorm:"column:run_count;default:0"`
	RetryCount       int                `gorm:"column:retry_count;default:0"`
	MaxRetries       int                `gorm:"column:max_retries;default:3"`
	CreatedAt        time.Time          `gorm:"autoCreateTime(3)"`
	UpdatedAt        time.Time          `gorm:"autoUpdateTime(3)"`
}

// TableName returns the table name for GORM
func (TaskEntity) TableName() string {
	return "tasks"
}

// BeforeCreate is a GORM hook to ensure UUID is set
func (t *TaskEntity) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ToDomain converts TaskEntity to domain Task
func (t *TaskEntity) ToDomain() *task.Task {
	channels := make([]task.Channel, len(t.Channels))
	for i, c := range t.Channels {
		channels[i] = task.Channel(c)
	}

	var flags *task.QualityFlags
	if t.LastQualityFlags != nil {
		f := task.QualityFlags(*t.LastQualityFlags)
		flags = &f
	}

	return &task.Task{
		ID:               t.ID,
		UserID:           t.UserID,
		Title:            t.Title,
		Description:      t.Description,
		Type:             task.TaskType(t.TaskType),
		ScheduleType:     task.ScheduleType(t.ScheduleType),
		ScheduleConfig:   task.ScheduleConfig(t.ScheduleConfig),
		NextRunAt:        t.NextRunAt,
		LastRunAt:        t.LastRunAt,
		Status:           task.TaskStatus(t.Status),
		Channels:         channels,
		AIContext:        t.AIContext,
		LastResult:       t.LastResult,
		LastQualityScore: t.LastQualityScore,
		LastQualityFlags: flags,
		DeliveryWarnings: []string(t.DeliveryWarnings),
		RunCount:         t.RunCount,
		RetryCount:       t.RetryCount,
		MaxRetries:       t.MaxRetries,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// FromDomain converts domain Task to TaskEntity
func (t *TaskEntity) FromDomain(domainTask *task.Task) {
	t.ID = domainTask.ID
	t.UserID = domainTask.UserID
	t.Title = domainTask.Title
	t.Description = domainTask.Description
	t.TaskType = string(domainTask.Type)
	t.ScheduleType = string(domainTask.ScheduleType)
	t.ScheduleConfig = ScheduleConfigJSON(domainTask.ScheduleConfig)
	t.NextRunAt = domainTask.NextRunAt
	t.LastRunAt = domainTask.LastRunAt
	t.Status = string(domainTask.Status)

	channels := make(ChannelList, len(domainTask.Channels))
	for i, c := range domainTask.Channels {
		channels[i] = string(c)
	}
	t.Channels = channels

	t.AIContext = domainTask.AIContext
	t.LastResult = domainTask.LastResult
	t.LastQualityScore = domainTask.LastQualityScore

	if domainTask.LastQualityFlags != nil {
		f := QualityFlagsJSON(*domainTask.LastQualityFlags)
		t.LastQualityFlags = &f
	}

	t.DeliveryWarnings = WarningList(domainTask.DeliveryWarnings)
	t.RunCount = domainTask.RunCount
	t.RetryCount = domainTask.RetryCount
	t.MaxRetries = domainTask.MaxRetries
	t.CreatedAt = domainTask.CreatedAt
	t.UpdatedAt = domainTask.UpdatedAt
}

// NewTaskEntityFromDomain creates a new TaskEntity from domain Task
func NewTaskEntityFromDomain(domainTask *task.Task) *TaskEntity {
	entity := &TaskEntity{}
	entity.FromDomain(domainTask)
	return entity
}
