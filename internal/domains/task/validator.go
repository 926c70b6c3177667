package task

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TitleMaxLen bounds task titles.
	TitleMaxLen = 1024
	// PastGrace is how far in the past a next run time may sit before being
	// rejected; re-scheduled missed occurrences bypass it via allowPast.
	PastGrace = 60 * time.Second
)

// Issue is a single validation failure bound to a field.
type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries the full list of issues for a rejected request.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", issue.Field, issue.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateTask checks the task-shape invariants. allowPast permits past run
// times when the calculator re-schedules missed occurrences.
func ValidateTask(t *Task, now time.Time, allowPast bool) []Issue {
	var issues []Issue

	if strings.TrimSpace(t.Title) == "" {
		issues = append(issues, Issue{Field: "title", Reason: "must not be empty"})
	} else if len(t.Title) > TitleMaxLen {
		issues = append(issues, Issue{Field: "title", Reason: fmt.Sprintf("must be at most %d characters", TitleMaxLen)})
	}

	if !t.Type.IsValid() {
		issues = append(issues, Issue{Field: "taskType", Reason: fmt.Sprintf("unknown task type %q", t.Type)})
	}

	if !t.ScheduleType.IsValid() {
		issues = append(issues, Issue{Field: "scheduleType", Reason: fmt.Sprintf("unknown schedule type %q", t.ScheduleType)})
	} else {
		issues = append(issues, ValidateScheduleConfig(t.ScheduleType, t.ScheduleConfig)...)
	}

	if len(t.Channels) == 0 {
		issues = append(issues, Issue{Field: "notificationChannels", Reason: "at least one channel is required"})
	}
	for _, ch := range t.Channels {
		if !ch.IsValid() {
			issues = append(issues, Issue{Field: "notificationChannels", Reason: fmt.Sprintf("unknown channel %q", ch)})
		}
	}

	if t.MaxRetries < 0 {
		issues = append(issues, Issue{Field: "maxRetries", Reason: "must not be negative"})
	}

	if t.NextRunAt != nil && !allowPast && t.NextRunAt.Before(now.Add(-PastGrace)) {
		issues = append(issues, Issue{Field: "nextRunAt", Reason: "must not be in the past"})
	}

	return issues
}

// ValidateScheduleConfig checks that the config shape matches the schedule
// type.
func ValidateScheduleConfig(st ScheduleType, cfg ScheduleConfig) []Issue {
	var issues []Issue

	switch st {
	case ScheduleOnce:
		if cfg.RunAt == nil {
			issues = append(issues, Issue{Field: "scheduleConfig.runAt", Reason: "required for once schedules"})
		}
	case ScheduleDaily:
		issues = append(issues, validateClockFields(cfg)...)
		if cfg.IntervalDays < 0 {
			issues = append(issues, Issue{Field: "scheduleConfig.intervalDays", Reason: "must not be negative"})
		}
	case ScheduleWeekly:
		issues = append(issues, validateClockFields(cfg)...)
		if len(cfg.Weekdays) == 0 {
			issues = append(issues, Issue{Field: "scheduleConfig.weekdays", Reason: "required for weekly schedules"})
		}
		for _, wd := range cfg.Weekdays {
			if wd < 0 || wd > 6 {
				issues = append(issues, Issue{Field: "scheduleConfig.weekdays", Reason: fmt.Sprintf("weekday %d out of range 0-6", wd)})
			}
		}
	case ScheduleMonthly:
		issues = append(issues, validateClockFields(cfg)...)
		if cfg.DayOfMonth < 1 || cfg.DayOfMonth > 31 {
			issues = append(issues, Issue{Field: "scheduleConfig.dayOfMonth", Reason: "must be between 1 and 31"})
		}
	case ScheduleYearly:
		issues = append(issues, validateClockFields(cfg)...)
		if cfg.Month < 1 || cfg.Month > 12 {
			issues = append(issues, Issue{Field: "scheduleConfig.month", Reason: "must be between 1 and 12"})
		}
		if cfg.Day < 1 || cfg.Day > 31 {
			issues = append(issues, Issue{Field: "scheduleConfig.day", Reason: "must be between 1 and 31"})
		}
	case ScheduleCustom:
		if cfg.IntervalMinutes <= 0 {
			issues = append(issues, Issue{Field: "scheduleConfig.intervalMinutes", Reason: "must be positive"})
		}
	}

	if cfg.MaxOccurrences != nil && *cfg.MaxOccurrences <= 0 {
		issues = append(issues, Issue{Field: "scheduleConfig.maxOccurrences", Reason: "must be positive"})
	}

	return issues
}

func validateClockFields(cfg ScheduleConfig) []Issue {
	var issues []Issue
	if cfg.Hour < 0 || cfg.Hour > 23 {
		issues = append(issues, Issue{Field: "scheduleConfig.hour", Reason: "must be between 0 and 23"})
	}
	if cfg.Minute < 0 || cfg.Minute > 59 {
		issues = append(issues, Issue{Field: "scheduleConfig.minute", Reason: "must be between 0 and 59"})
	}
	return issues
}
