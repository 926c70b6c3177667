package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/schedule"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/internal/domains/timeparse"
	"github.com/xpanvictor/chrono/internal/repository/memory"
	"github.com/xpanvictor/chrono/pkg/Logger"
	"github.com/xpanvictor/chrono/pkg/clock"
)

var managerNow = time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

func newTestManager() (task.TaskManager, *memory.TaskRepo, *clock.Mock) {
	repo := memory.NewTaskRepo()
	clk := clock.NewMock(managerNow)
	manager := task.NewTaskManager(repo, schedule.New(), timeparse.New(clk), clk, Logger.New(true))
	return manager, repo, clk
}

func dailyRequest() task.CreateTaskRequest {
	return task.CreateTaskRequest{
		Title:          "morning briefing",
		Description:    "summarize my day",
		TaskType:       task.TypePeriodic,
		ScheduleType:   task.ScheduleDaily,
		ScheduleConfig: task.ScheduleConfig{Hour: 7, Minute: 0},
		Channels:       []task.Channel{task.ChannelPush},
	}
}

func TestCreateTaskSchedulesFirstRun(t *testing.T) {
	manager, _, _ := newTestManager()
	userID := uuid.New().String()

	resp, err := manager.CreateTask(context.Background(), userID, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if resp.Status != task.StatusActive {
		t.Errorf("expected status active, got %s", resp.Status)
	}
	if resp.NextRunAt == nil {
		t.Fatal("expected NextRunAt to be set")
	}
	// created at 06:00 with a 07:00 daily time: first run is today 07:00
	want := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	if !resp.NextRunAt.Equal(want) {
		t.Errorf("expected first run %v, got %v", want, resp.NextRunAt)
	}
	if resp.RunCount != 0 || resp.RetryCount != 0 {
		t.Errorf("fresh task should have zero counters, got run=%d retry=%d", resp.RunCount, resp.RetryCount)
	}
	if resp.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", resp.MaxRetries)
	}
}

func TestCreateTaskRejectsInvalid(t *testing.T) {
	manager, _, _ := newTestManager()

	req := dailyRequest()
	req.Channels = nil
	_, err := manager.CreateTask(context.Background(), uuid.New().String(), req)

	var validationErr *task.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestCreateTaskRejectsExhaustedSchedule(t *testing.T) {
	manager, _, _ := newTestManager()

	end := managerNow.Add(-time.Hour)
	req := dailyRequest()
	req.ScheduleConfig.EndDate = &end

	var validationErr *task.ValidationError
	if _, err := manager.CreateTask(context.Background(), uuid.New().String(), req); !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError for exhausted schedule, got %v", err)
	}
}

func TestCreateReminder(t *testing.T) {
	manager, _, _ := newTestManager()

	resp, err := manager.CreateReminder(context.Background(), uuid.New().String(), task.CreateReminderRequest{
		Text:    "call the dentist",
		Time:    "in 30 minutes",
		Channel: task.ChannelSMS,
	})
	if err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	if resp.TaskType != task.TypeReminder || resp.ScheduleType != task.ScheduleOnce {
		t.Errorf("expected one-shot reminder, got type=%s schedule=%s", resp.TaskType, resp.ScheduleType)
	}
	want := managerNow.Add(30 * time.Minute)
	if resp.NextRunAt == nil || !resp.NextRunAt.Equal(want) {
		t.Errorf("expected next run %v, got %v", want, resp.NextRunAt)
	}
}

func TestCreateReminderRejectsUnparseableTime(t *testing.T) {
	manager, _, _ := newTestManager()

	_, err := manager.CreateReminder(context.Background(), uuid.New().String(), task.CreateReminderRequest{
		Text:    "call the dentist",
		Time:    "whenever you feel like it",
		Channel: task.ChannelSMS,
	})

	var validationErr *task.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestGetTaskHidesForeignTasks(t *testing.T) {
	manager, _, _ := newTestManager()
	owner := uuid.New().String()

	resp, err := manager.CreateTask(context.Background(), owner, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, err := manager.GetTask(context.Background(), owner, resp.ID.String()); err != nil {
		t.Errorf("owner should see the task: %v", err)
	}

	// a foreign user and malformed ids both read as not-found
	if _, err := manager.GetTask(context.Background(), uuid.New().String(), resp.ID.String()); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("foreign task should read as not found, got %v", err)
	}
	if _, err := manager.GetTask(context.Background(), owner, "not-a-uuid"); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("malformed id should read as not found, got %v", err)
	}
}

func TestListTasksFilters(t *testing.T) {
	manager, _, _ := newTestManager()
	owner := uuid.New().String()

	if _, err := manager.CreateTask(context.Background(), owner, dailyRequest()); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := manager.CreateReminder(context.Background(), owner, task.CreateReminderRequest{
		Text: "one-off", Time: "in 2 hours", Channel: task.ChannelPush,
	}); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	all, err := manager.ListTasks(context.Background(), owner, task.ListTasksRequest{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}

	reminderType := task.TypeReminder
	reminders, err := manager.ListTasks(context.Background(), owner, task.ListTasksRequest{TaskType: &reminderType})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(reminders) != 1 || reminders[0].TaskType != task.TypeReminder {
		t.Errorf("expected exactly the reminder, got %v", reminders)
	}
}

func TestUpdateTaskRecomputesSchedule(t *testing.T) {
	manager, _, _ := newTestManager()
	owner := uuid.New().String()

	created, err := manager.CreateTask(context.Background(), owner, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	newCfg := task.ScheduleConfig{Hour: 18, Minute: 30}
	updated, err := manager.UpdateTask(context.Background(), owner, created.ID.String(), task.UpdateTaskRequest{
		ScheduleConfig: &newCfg,
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	want := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	if updated.NextRunAt == nil || !updated.NextRunAt.Equal(want) {
		t.Errorf("expected recomputed next run %v, got %v", want, updated.NextRunAt)
	}
}

func TestUpdateTaskTitleKeepsSchedule(t *testing.T) {
	manager, _, _ := newTestManager()
	owner := uuid.New().String()

	created, err := manager.CreateTask(context.Background(), owner, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	title := "evening briefing"
	updated, err := manager.UpdateTask(context.Background(), owner, created.ID.String(), task.UpdateTaskRequest{
		Title: &title,
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Title != title {
		t.Errorf("expected title %q, got %q", title, updated.Title)
	}
	if updated.NextRunAt == nil || !updated.NextRunAt.Equal(*created.NextRunAt) {
		t.Errorf("title change must not move the schedule: %v vs %v", updated.NextRunAt, created.NextRunAt)
	}
}

func TestDeleteTaskIsIdempotent(t *testing.T) {
	manager, _, _ := newTestManager()
	owner := uuid.New().String()

	created, err := manager.CreateTask(context.Background(), owner, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := manager.DeleteTask(context.Background(), owner, created.ID.String()); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := manager.DeleteTask(context.Background(), owner, created.ID.String()); err != nil {
		t.Errorf("second delete should succeed, got %v", err)
	}
	if err := manager.DeleteTask(context.Background(), owner, uuid.New().String()); err != nil {
		t.Errorf("deleting a never-existing task should succeed, got %v", err)
	}
}

func TestPauseResumeCycle(t *testing.T) {
	manager, _, clk := newTestManager()
	owner := uuid.New().String()

	created, err := manager.CreateTask(context.Background(), owner, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	paused, err := manager.PauseTask(context.Background(), owner, created.ID.String())
	if err != nil {
		t.Fatalf("PauseTask failed: %v", err)
	}
	if paused.Status != task.StatusPaused {
		t.Errorf("expected paused, got %s", paused.Status)
	}
	if paused.NextRunAt != nil {
		t.Errorf("paused task must not be schedulable, got next run %v", paused.NextRunAt)
	}

	// resume two days later: schedule restarts from the new now
	clk.Advance(48 * time.Hour)
	resumed, err := manager.ResumeTask(context.Background(), owner, created.ID.String())
	if err != nil {
		t.Fatalf("ResumeTask failed: %v", err)
	}
	if resumed.Status != task.StatusActive {
		t.Errorf("expected active, got %s", resumed.Status)
	}
	want := time.Date(2026, 3, 12, 7, 0, 0, 0, time.UTC)
	if resumed.NextRunAt == nil || !resumed.NextRunAt.Equal(want) {
		t.Errorf("expected next run %v, got %v", want, resumed.NextRunAt)
	}
}

func TestPauseRejectsInvalidStates(t *testing.T) {
	manager, repo, _ := newTestManager()
	owner := uuid.New().String()

	created, err := manager.CreateTask(context.Background(), owner, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := repo.Release(context.Background(), created.ID, task.StatusCompleted, task.ReleasePatch{ClearNextRun: true}); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if _, err := manager.PauseTask(context.Background(), owner, created.ID.String()); !errors.Is(err, task.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelTask(t *testing.T) {
	manager, _, _ := newTestManager()
	owner := uuid.New().String()

	created, err := manager.CreateTask(context.Background(), owner, dailyRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	cancelled, err := manager.CancelTask(context.Background(), owner, created.ID.String())
	if err != nil {
		t.Fatalf("CancelTask failed: %v", err)
	}
	if cancelled.Status != task.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.NextRunAt != nil {
		t.Errorf("cancelled task must have no next run, got %v", cancelled.NextRunAt)
	}
}

func TestCalculateNextRunPreview(t *testing.T) {
	manager, _, _ := newTestManager()

	next, err := manager.CalculateNextRun(context.Background(), task.ScheduleDaily, task.ScheduleConfig{Hour: 7})
	if err != nil {
		t.Fatalf("CalculateNextRun failed: %v", err)
	}
	want := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	if next == nil || !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}

	var validationErr *task.ValidationError
	if _, err := manager.CalculateNextRun(context.Background(), task.ScheduleWeekly, task.ScheduleConfig{}); !errors.As(err, &validationErr) {
		t.Errorf("expected *ValidationError for bad config, got %v", err)
	}
}
