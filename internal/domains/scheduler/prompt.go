package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/xpanvictor/chrono/internal/domains/task"
)

// Prompt assembly. The prompt is a pure function of (task, now); four
// labeled sections in fixed order so executor behavior is reproducible
// under test.

const promptPreamble = `You are the task execution engine of a personal AI assistant.
You are running a scheduled task on behalf of the user; the output you
produce is delivered directly to them over their notification channels.`

const promptGuidelines = `Professional guidelines and critical rules:
- Never refer to internal tool or system names.
- Be concise; the user reads this on a phone.
- Always acknowledge the user and the task you are acting on.
- Provide actionable next steps where they apply.
- Keep a warm, supportive tone without being verbose.`

const reminderInstructions = `This is a one-shot reminder. Produce a short message that:
1. Acknowledges the reminder and restates what it is about.
2. States clearly that the moment the user asked to be reminded of has arrived.
3. Suggests one or two concrete next steps if any are implied.`

const periodicInstructions = `This is a recurring periodic task. Produce a message that:
1. Acknowledges the task and this occurrence.
2. Summarizes what the user should do for this occurrence.
3. Lists recommended next steps as a short numbered list.`

const automatedInstructions = `This is a system-automated task. Produce a report that:
1. Acknowledges the task.
2. Summarizes the work performed or the state observed.
3. Recommends follow-up actions the user may want to take.`

const genericInstructions = `Process this task. Produce a message that acknowledges the task,
summarizes its intent, and recommends next steps.`

// BuildPrompt assembles the executor prompt for a task at the given instant.
func BuildPrompt(t task.Task, now time.Time) string {
	var b strings.Builder

	b.WriteString(promptPreamble)
	fmt.Fprintf(&b, "\nCurrent time: %s\n", now.Format(time.RFC3339))

	b.WriteString("\nTask context:\n")
	fmt.Fprintf(&b, "- id: %s\n", t.ID)
	fmt.Fprintf(&b, "- type: %s\n", t.Type)
	fmt.Fprintf(&b, "- user: %s\n", t.UserID)
	fmt.Fprintf(&b, "- title: %s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(&b, "- description: %s\n", t.Description)
	}
	fmt.Fprintf(&b, "- schedule: %s\n", describeSchedule(t.ScheduleType, t.ScheduleConfig))
	if t.LastRunAt != nil {
		fmt.Fprintf(&b, "- last run: %s\n", t.LastRunAt.Format(time.RFC3339))
	} else {
		b.WriteString("- last run: never\n")
	}
	fmt.Fprintf(&b, "- created: %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- notification channels: %s\n", joinChannels(t.Channels))
	if t.AIContext != "" {
		fmt.Fprintf(&b, "- user context: %s\n", t.AIContext)
	}

	b.WriteString("\nInstructions:\n")
	switch t.Type {
	case task.TypeReminder:
		b.WriteString(reminderInstructions)
	case task.TypePeriodic:
		b.WriteString(periodicInstructions)
	case task.TypeAutomated:
		b.WriteString(automatedInstructions)
	default:
		b.WriteString(genericInstructions)
	}
	b.WriteString("\n\n")
	b.WriteString(promptGuidelines)
	b.WriteString("\n")

	return b.String()
}

func describeSchedule(st task.ScheduleType, cfg task.ScheduleConfig) string {
	switch st {
	case task.ScheduleOnce:
		if cfg.RunAt != nil {
			return fmt.Sprintf("once at %s", cfg.RunAt.Format(time.RFC3339))
		}
		return "once"
	case task.ScheduleDaily:
		interval := cfg.IntervalDays
		if interval <= 0 {
			interval = 1
		}
		return fmt.Sprintf("every %d day(s) at %02d:%02d", interval, cfg.Hour, cfg.Minute)
	case task.ScheduleWeekly:
		return fmt.Sprintf("weekly on weekdays %v at %02d:%02d", cfg.Weekdays, cfg.Hour, cfg.Minute)
	case task.ScheduleMonthly:
		return fmt.Sprintf("monthly on day %d at %02d:%02d", cfg.DayOfMonth, cfg.Hour, cfg.Minute)
	case task.ScheduleYearly:
		return fmt.Sprintf("yearly on %02d-%02d at %02d:%02d", cfg.Month, cfg.Day, cfg.Hour, cfg.Minute)
	case task.ScheduleCustom:
		return fmt.Sprintf("every %d minute(s)", cfg.IntervalMinutes)
	default:
		return string(st)
	}
}

func joinChannels(channels []task.Channel) string {
	parts := make([]string, len(channels))
	for i, ch := range channels {
		parts[i] = string(ch)
	}
	return strings.Join(parts, ", ")
}
