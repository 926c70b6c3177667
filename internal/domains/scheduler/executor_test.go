package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/notification"
	"github.com/xpanvictor/chrono/internal/domains/schedule"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/internal/repository/memory"
	"github.com/xpanvictor/chrono/pkg/Logger"
	"github.com/xpanvictor/chrono/pkg/clock"
)

var executorNow = time.Date(2026, 3, 10, 7, 0, 5, 0, time.UTC)

type stubAgent struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (s *stubAgent) Run(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubAgent) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubDispatcher struct {
	mu       sync.Mutex
	warnings []string
	payloads []string
}

func (s *stubDispatcher) Dispatch(_ context.Context, channels []task.Channel, _ uuid.UUID, payload string) notification.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	if len(s.warnings) > 0 {
		return notification.Result{Warnings: s.warnings}
	}
	return notification.Result{Delivered: channels}
}

func (s *stubDispatcher) dispatched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.payloads...)
}

func newTestExecutor(agent Agent, dispatcher Dispatcher, repo task.TaskRepository) (*Executor, *clock.Mock) {
	clk := clock.NewMock(executorNow)
	executor := NewExecutor(repo, schedule.New(), dispatcher, agent, clk, Logger.New(true), DefaultExecutorConfig())
	return executor, clk
}

func seedTask(t *testing.T, repo task.TaskRepository, mutate func(*task.Task)) task.Task {
	t.Helper()
	due := executorNow.Add(-time.Second)
	tk := &task.Task{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Title:          "morning briefing",
		Type:           task.TypePeriodic,
		ScheduleType:   task.ScheduleDaily,
		ScheduleConfig: task.ScheduleConfig{Hour: 7, Minute: 0},
		NextRunAt:      &due,
		Status:         task.StatusActive,
		Channels:       []task.Channel{task.ChannelPush},
		MaxRetries:     3,
		CreatedAt:      executorNow.Add(-24 * time.Hour),
	}
	if mutate != nil {
		mutate(tk)
	}
	if err := repo.Insert(context.Background(), tk); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return *tk
}

func TestExecuteOnceCompletes(t *testing.T) {
	repo := memory.NewTaskRepo()
	agent := &stubAgent{response: "Reminder: your meeting starts now. You can join from the calendar link."}
	dispatcher := &stubDispatcher{}
	executor, _ := newTestExecutor(agent, dispatcher, repo)

	runAt := executorNow.Add(-time.Second)
	tk := seedTask(t, repo, func(tk *task.Task) {
		tk.Type = task.TypeReminder
		tk.ScheduleType = task.ScheduleOnce
		tk.ScheduleConfig = task.ScheduleConfig{RunAt: &runAt}
	})

	executor.Execute(context.Background(), tk)

	got, err := repo.Get(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != task.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.NextRunAt != nil {
		t.Errorf("completed task must have no next run, got %v", got.NextRunAt)
	}
	if got.RunCount != 1 {
		t.Errorf("expected run count 1, got %d", got.RunCount)
	}
	if got.LastResult == "" {
		t.Error("expected agent response to be persisted")
	}
	if got.LastQualityScore == nil || got.LastQualityFlags == nil {
		t.Error("expected quality assessment to be persisted")
	}
	if payloads := dispatcher.dispatched(); len(payloads) != 1 || payloads[0] != agent.response {
		t.Errorf("expected one dispatch of the agent response, got %v", payloads)
	}
}

func TestExecuteRecurringReschedules(t *testing.T) {
	repo := memory.NewTaskRepo()
	agent := &stubAgent{response: "here is your briefing"}
	dispatcher := &stubDispatcher{}
	executor, _ := newTestExecutor(agent, dispatcher, repo)

	tk := seedTask(t, repo, func(tk *task.Task) {
		tk.RetryCount = 2 // a success resets the retry budget
		tk.RunCount = 4
	})

	executor.Execute(context.Background(), tk)

	got, err := repo.Get(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != task.StatusActive {
		t.Errorf("expected active, got %s", got.Status)
	}
	want := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	if got.NextRunAt == nil || !got.NextRunAt.Equal(want) {
		t.Errorf("expected next run %v, got %v", want, got.NextRunAt)
	}
	if got.RetryCount != 0 {
		t.Errorf("expected retry count reset, got %d", got.RetryCount)
	}
	if got.RunCount != 5 {
		t.Errorf("expected run count 5, got %d", got.RunCount)
	}
	if got.LastRunAt == nil || !got.LastRunAt.Equal(executorNow) {
		t.Errorf("expected last run stamped at claim time, got %v", got.LastRunAt)
	}
}

func TestExecuteAgentErrorSchedulesRetry(t *testing.T) {
	repo := memory.NewTaskRepo()
	agent := &stubAgent{err: errors.New("model unavailable")}
	dispatcher := &stubDispatcher{}
	executor, _ := newTestExecutor(agent, dispatcher, repo)

	tk := seedTask(t, repo, nil)

	executor.Execute(context.Background(), tk)

	got, err := repo.Get(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != task.StatusActive {
		t.Errorf("expected active for retry, got %s", got.Status)
	}
	if got.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", got.RetryCount)
	}
	if got.RunCount != 0 {
		t.Errorf("a failed attempt must not count as a run, got %d", got.RunCount)
	}
	if got.NextRunAt == nil {
		t.Fatal("expected a retry time")
	}
	// first retry: 60s base with +-20% jitter
	delay := got.NextRunAt.Sub(executorNow)
	if delay < 48*time.Second || delay > 72*time.Second {
		t.Errorf("retry delay %v outside jitter window", delay)
	}
	if len(dispatcher.dispatched()) != 0 {
		t.Error("failed execution must not dispatch")
	}
}

func TestExecuteAgentErrorExhaustsRetries(t *testing.T) {
	repo := memory.NewTaskRepo()
	agent := &stubAgent{err: errors.New("model unavailable")}
	dispatcher := &stubDispatcher{}
	executor, _ := newTestExecutor(agent, dispatcher, repo)

	tk := seedTask(t, repo, func(tk *task.Task) {
		tk.RetryCount = 3
		tk.MaxRetries = 3
	})

	executor.Execute(context.Background(), tk)

	got, err := repo.Get(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != task.StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.NextRunAt != nil {
		t.Errorf("failed task must have no next run, got %v", got.NextRunAt)
	}
	if got.RetryCount > got.MaxRetries {
		t.Errorf("retry count %d exceeds max %d", got.RetryCount, got.MaxRetries)
	}
}

func TestExecuteSkipsAlreadyClaimedTask(t *testing.T) {
	repo := memory.NewTaskRepo()
	agent := &stubAgent{response: "should not run"}
	dispatcher := &stubDispatcher{}
	executor, _ := newTestExecutor(agent, dispatcher, repo)

	tk := seedTask(t, repo, func(tk *task.Task) {
		tk.Status = task.StatusProcessing
	})

	executor.Execute(context.Background(), tk)

	if agent.callCount() != 0 {
		t.Error("agent must not run for a task claimed elsewhere")
	}
	got, _ := repo.Get(context.Background(), tk.ID)
	if got.Status != task.StatusProcessing {
		t.Errorf("claimed task must be left alone, got %s", got.Status)
	}
}

func TestExecuteRecordsDeliveryWarnings(t *testing.T) {
	repo := memory.NewTaskRepo()
	agent := &stubAgent{response: "here is your briefing"}
	dispatcher := &stubDispatcher{warnings: []string{"push: gateway timeout"}}
	executor, _ := newTestExecutor(agent, dispatcher, repo)

	tk := seedTask(t, repo, nil)

	executor.Execute(context.Background(), tk)

	got, err := repo.Get(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	// delivery failure never rolls back the execution result
	if got.Status != task.StatusActive {
		t.Errorf("expected active, got %s", got.Status)
	}
	if got.RunCount != 1 {
		t.Errorf("expected run count 1, got %d", got.RunCount)
	}
	if len(got.DeliveryWarnings) != 1 || got.DeliveryWarnings[0] != "push: gateway timeout" {
		t.Errorf("expected the delivery warning to be persisted, got %v", got.DeliveryWarnings)
	}
}

func TestConcurrentExecuteClaimsOnce(t *testing.T) {
	repo := memory.NewTaskRepo()
	agent := &stubAgent{response: "here is your briefing"}
	dispatcher := &stubDispatcher{}
	executor, _ := newTestExecutor(agent, dispatcher, repo)

	tk := seedTask(t, repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			executor.Execute(context.Background(), tk)
		}()
	}
	wg.Wait()

	if agent.callCount() != 1 {
		t.Errorf("expected exactly one execution, agent ran %d times", agent.callCount())
	}
	got, _ := repo.Get(context.Background(), tk.ID)
	if got.RunCount != 1 {
		t.Errorf("expected run count 1, got %d", got.RunCount)
	}
}
