package scheduler

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/notification"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/pkg/Logger"
	"github.com/xpanvictor/chrono/pkg/clock"
)

// Agent is the external AI executor. Implementations must respect the
// context deadline; the engine treats the agent as opaque.
type Agent interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Dispatcher fans an execution result out to notification channels.
// Satisfied by *notification.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, channels []task.Channel, userID uuid.UUID, payload string) notification.Result
}

// ExecutorConfig holds the executor tunables.
type ExecutorConfig struct {
	// AgentTimeout bounds a single agent invocation.
	AgentTimeout time.Duration
	// BackoffBase, BackoffFactor, BackoffCap and BackoffJitter shape the
	// retry curve: base * factor^(n-1), capped, with +-jitter fraction.
	BackoffBase   time.Duration
	BackoffFactor float64
	BackoffCap    time.Duration
	BackoffJitter float64
}

// DefaultExecutorConfig returns an ExecutorConfig with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		AgentTimeout:  120 * time.Second,
		BackoffBase:   60 * time.Second,
		BackoffFactor: 2,
		BackoffCap:    time.Hour,
		BackoffJitter: 0.2,
	}
}

// Executor runs one task end to end: exclusive claim, prompt assembly,
// agent invocation, quality assessment, result persistence and notification
// dispatch.
type Executor struct {
	repository task.TaskRepository
	calculator task.NextRunCalculator
	dispatcher Dispatcher
	agent      Agent
	clock      clock.Clock
	logger     *Logger.Logger
	cfg        ExecutorConfig
}

// NewExecutor creates an executor.
func NewExecutor(
	repository task.TaskRepository,
	calculator task.NextRunCalculator,
	dispatcher Dispatcher,
	agent Agent,
	clk clock.Clock,
	logger *Logger.Logger,
	cfg ExecutorConfig,
) *Executor {
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 120 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 60 * time.Second
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 2
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = time.Hour
	}
	return &Executor{
		repository: repository,
		calculator: calculator,
		dispatcher: dispatcher,
		agent:      agent,
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
	}
}

// Execute processes a single due task. Errors are isolated to the task:
// Execute never returns them to the caller, it logs and leaves the task in
// a recoverable state.
func (e *Executor) Execute(ctx context.Context, snapshot task.Task) {
	now := e.clock.Now()

	if err := e.repository.ClaimForProcessing(ctx, snapshot.ID, now); err != nil {
		if errors.Is(err, task.ErrAlreadyClaimed) {
			// Another worker, or residue from recovery. Not ours.
			e.logger.Debugf("task %s already claimed", snapshot.ID)
			return
		}
		e.logger.Errorf("failed to claim task %s: %v", snapshot.ID, err)
		return
	}

	t, err := e.repository.Get(ctx, snapshot.ID)
	if err != nil {
		e.logger.Errorf("failed to reload claimed task %s: %v", snapshot.ID, err)
		return
	}

	prompt := BuildPrompt(*t, now)

	agentCtx, cancel := context.WithTimeout(ctx, e.cfg.AgentTimeout)
	text, agentErr := e.agent.Run(agentCtx, prompt)
	cancel()
	if agentErr != nil {
		e.handleAgentFailure(ctx, t, agentErr)
		return
	}

	assessment := Assess(text)
	flags := assessment.Flags()
	score := assessment.Score

	next, calcErr := e.calculator.Next(t.ScheduleType, t.ScheduleConfig, now, t.RunCount+1)
	if calcErr != nil {
		e.logger.Errorf("task %s: schedule no longer computable, completing: %v", t.ID, calcErr)
		next = nil
	}

	resetRetries := 0
	patch := task.ReleasePatch{
		LastResult:    &text,
		QualityScore:  &score,
		QualityFlags:  &flags,
		RetryCount:    &resetRetries,
		RunCountDelta: 1,
	}
	nextStatus := task.StatusCompleted
	if next != nil {
		patch.NextRunAt = next
		nextStatus = task.StatusActive
	} else {
		patch.ClearNextRun = true
	}

	if _, err := e.repository.Release(ctx, t.ID, nextStatus, patch); err != nil {
		e.logger.Errorf("failed to release task %s: %v", t.ID, err)
		return
	}

	result := e.dispatcher.Dispatch(ctx, t.Channels, t.UserID, text)
	if len(result.Warnings) > 0 {
		// The AI work is already persisted; delivery failures are recorded,
		// never retried.
		e.logger.Warnf("task %s: %d of %d channels failed", t.ID, len(result.Warnings), len(t.Channels))
		if err := e.repository.SetDeliveryWarnings(ctx, t.ID, result.Warnings); err != nil {
			e.logger.Errorf("failed to record delivery warnings for task %s: %v", t.ID, err)
		}
	}

	e.logger.Infof("task %s executed (status %s, quality %.1f)", t.ID, nextStatus, score)
}

func (e *Executor) handleAgentFailure(ctx context.Context, t *task.Task, agentErr error) {
	retry := t.RetryCount + 1
	if retry <= t.MaxRetries {
		nextAt := e.clock.Now().Add(e.backoff(retry))
		_, err := e.repository.Release(ctx, t.ID, task.StatusActive, task.ReleasePatch{
			NextRunAt:  &nextAt,
			RetryCount: &retry,
		})
		if err != nil {
			e.logger.Errorf("failed to schedule retry for task %s: %v", t.ID, err)
			return
		}
		e.logger.Warnf("task %s: agent error (attempt %d/%d), retrying at %s: %v",
			t.ID, retry, t.MaxRetries, nextAt.Format(time.RFC3339), agentErr)
		return
	}

	capped := t.MaxRetries
	_, err := e.repository.Release(ctx, t.ID, task.StatusFailed, task.ReleasePatch{
		ClearNextRun: true,
		RetryCount:   &capped,
	})
	if err != nil {
		e.logger.Errorf("failed to mark task %s failed: %v", t.ID, err)
		return
	}
	e.logger.Errorf("task %s failed after %d retries: %v", t.ID, t.MaxRetries, agentErr)
}

// backoff computes the retry delay for the n-th attempt.
func (e *Executor) backoff(retry int) time.Duration {
	d := float64(e.cfg.BackoffBase) * math.Pow(e.cfg.BackoffFactor, float64(retry-1))
	if d > float64(e.cfg.BackoffCap) {
		d = float64(e.cfg.BackoffCap)
	}
	if e.cfg.BackoffJitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*e.cfg.BackoffJitter
	}
	return time.Duration(d)
}
