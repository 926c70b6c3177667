package sinks

import (
	"context"

	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/pkg/Logger"
)

// LogSink writes notifications to the application log. It stands in for
// transports that are not wired in a deployment (e.g. sms/email in dev).
type LogSink struct {
	logger *Logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *Logger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send implements notification.Sink.
func (s *LogSink) Send(_ context.Context, ch task.Channel, userID uuid.UUID, payload string) error {
	s.logger.Infof("notification [%s] for user %s: %s", ch, userID, payload)
	return nil
}
