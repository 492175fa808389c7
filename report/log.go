package report

import (
	"context"

	"github.com/freegle/iznik-api/logger"
	"github.com/freegle/iznik-api/trace"
)

// LogSink writes reports to the logger at error level.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Report logs message at error level with the request id when known.
func (s *LogSink) Report(ctx context.Context, message string) error {
	evt := s.log.WithContext(ctx).Error().Str("report", "api")
	if id, ok := trace.RequestIDFromContext(ctx); ok {
		evt = evt.Str("request_id", id)
	}
	evt.Msg(message)
	return nil
}
