package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/pkg/Logger"
	"github.com/xpanvictor/chrono/pkg/clock"
)

// PollerConfig holds the polling loop tunables.
type PollerConfig struct {
	// Interval between polling cycles.
	Interval time.Duration
	// BatchLimit caps how many due tasks one cycle fetches.
	BatchLimit int
	// Workers is the number of concurrent executor goroutines.
	Workers int
	// QueueSize bounds the in-flight dispatch queue. A full queue blocks
	// the polling loop rather than dropping tasks.
	QueueSize int
	// StuckThreshold is how long a task may sit in processing before
	// recovery reclaims it.
	StuckThreshold time.Duration
	// GracePeriod bounds the shutdown drain.
	GracePeriod time.Duration
}

// DefaultPollerConfig returns a PollerConfig with sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:       30 * time.Second,
		BatchLimit:     100,
		Workers:        4,
		QueueSize:      64,
		StuckThreshold: 30 * time.Minute,
		GracePeriod:    60 * time.Second,
	}
}

// Runner executes a single claimed task. Satisfied by *Executor.
type Runner interface {
	Execute(ctx context.Context, t task.Task)
}

// Poller is the engine loop: every cycle it recovers stuck tasks, fetches
// the due batch and feeds it to a fixed worker pool.
type Poller struct {
	repository task.TaskRepository
	runner     Runner
	clock      clock.Clock
	logger     *Logger.Logger
	cfg        PollerConfig

	queue chan task.Task
	wg    sync.WaitGroup
}

// NewPoller creates a poller. Zero config fields fall back to defaults.
func NewPoller(repository task.TaskRepository, runner Runner, clk clock.Clock, logger *Logger.Logger, cfg PollerConfig) *Poller {
	def := DefaultPollerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = def.BatchLimit
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.StuckThreshold <= 0 {
		cfg.StuckThreshold = def.StuckThreshold
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = def.GracePeriod
	}
	return &Poller{
		repository: repository,
		runner:     runner,
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
		queue:      make(chan task.Task, cfg.QueueSize),
	}
}

// Run drives the engine until ctx is cancelled, then drains in-flight work
// for at most the grace period. It always returns nil after a clean drain.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Infof("scheduler started (interval %s, workers %d)", p.cfg.Interval, p.cfg.Workers)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx)
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// First cycle immediately so a restart does not wait a full interval.
	p.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return p.drain(cancelWorkers)
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) drain(cancelWorkers context.CancelFunc) error {
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Infof("scheduler stopped")
	case <-time.After(p.cfg.GracePeriod):
		// Abandoned work is left in processing; stuck recovery reclaims
		// it on the next start.
		cancelWorkers()
		p.logger.Warnf("scheduler shutdown exceeded grace period %s, abandoning in-flight work", p.cfg.GracePeriod)
	}
	return nil
}

func (p *Poller) worker(ctx context.Context) {
	defer p.wg.Done()
	for t := range p.queue {
		p.runner.Execute(ctx, t)
	}
}

// cycle runs one recover-and-fetch pass and enqueues the due batch.
func (p *Poller) cycle(ctx context.Context) {
	now := p.clock.Now()
	p.recoverStuck(ctx, now)

	due, err := p.repository.DueBefore(ctx, now, p.cfg.BatchLimit)
	if err != nil {
		p.logger.Errorf("failed to fetch due tasks: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	p.logger.Debugf("fetched %d due task(s)", len(due))

	for _, t := range due {
		select {
		case p.queue <- t:
		case <-ctx.Done():
			return
		}
	}
}

// recoverStuck reclaims tasks stranded in processing by a crashed or wedged
// worker. Each recovery consumes one retry.
func (p *Poller) recoverStuck(ctx context.Context, now time.Time) {
	cutoff := now.Add(-p.cfg.StuckThreshold)
	stuck, err := p.repository.FindStuck(ctx, cutoff)
	if err != nil {
		p.logger.Errorf("stuck task scan failed: %v", err)
		return
	}

	for _, t := range stuck {
		retry := t.RetryCount + 1
		if retry > t.MaxRetries {
			capped := t.MaxRetries
			if _, err := p.repository.Release(ctx, t.ID, task.StatusFailed, task.ReleasePatch{
				ClearNextRun: true,
				RetryCount:   &capped,
			}); err != nil {
				p.logger.Errorf("failed to fail stuck task %s: %v", t.ID, err)
				continue
			}
			p.logger.Errorf("task %s stuck in processing with no retries left, marked failed", t.ID)
			continue
		}

		// Keep next_run_at so the reclaimed task is picked up this cycle.
		if _, err := p.repository.Release(ctx, t.ID, task.StatusActive, task.ReleasePatch{
			RetryCount: &retry,
		}); err != nil {
			p.logger.Errorf("failed to recover stuck task %s: %v", t.ID, err)
			continue
		}
		p.logger.Warnf("recovered stuck task %s (attempt %d/%d)", t.ID, retry, t.MaxRetries)
	}
}
