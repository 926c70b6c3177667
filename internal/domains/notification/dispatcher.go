package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/pkg/Logger"
)

// Sink delivers a payload to a user over one notification transport. Sinks
// are external collaborators; the dispatcher does not interpret payload
// formatting.
type Sink interface {
	Send(ctx context.Context, ch task.Channel, userID uuid.UUID, payload string) error
}

// Result aggregates a fan-out: which channels accepted delivery and a
// warning per channel that failed. Delivery counts as successful when at
// least one channel accepted.
type Result struct {
	Delivered []task.Channel
	Warnings  []string
}

// Ok reports whether at least one channel accepted the payload.
func (r Result) Ok() bool { return len(r.Delivered) > 0 }

// Dispatcher fans an execution result out to the task's configured channels.
type Dispatcher struct {
	sinks  map[task.Channel]Sink
	logger *Logger.Logger
}

// NewDispatcher creates a dispatcher over the given per-channel sinks.
func NewDispatcher(sinks map[task.Channel]Sink, logger *Logger.Logger) *Dispatcher {
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Dispatch sends the payload to every channel in order. Failures never abort
// the fan-out; they are collected as warnings for the caller to persist.
func (d *Dispatcher) Dispatch(ctx context.Context, channels []task.Channel, userID uuid.UUID, payload string) Result {
	var result Result
	for _, ch := range channels {
		sink, ok := d.sinks[ch]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: no sink configured", ch))
			continue
		}
		if err := sink.Send(ctx, ch, userID, payload); err != nil {
			d.logger.Warnf("dispatch to %s failed for user %s: %v", ch, userID, err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", ch, err))
			continue
		}
		result.Delivered = append(result.Delivered, ch)
	}
	return result
}
