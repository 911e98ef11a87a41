package progress

import (
	"go.uber.org/zap"
)

// LogSink emits one structured log line per progress event.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Observe logs the event using structured fields.
func (s *LogSink) Observe(evt Event) {
	fields := []zap.Field{
		zap.String("run_id", evt.RunID.String()),
		zap.String("unit", evt.Unit.Key()),
		zap.String("action", string(evt.Action)),
	}
	if evt.Name != "" {
		fields = append(fields, zap.String("name", evt.Name))
	}
	if evt.Stage != "" {
		fields = append(fields, zap.String("stage", evt.Stage))
	}
	if evt.Bytes > 0 {
		fields = append(fields, zap.Int64("bytes", evt.Bytes))
	}
	if evt.Dur > 0 {
		fields = append(fields, zap.Duration("dur", evt.Dur))
	}
	if evt.Note != "" {
		fields = append(fields, zap.String("note", evt.Note))
	}

	switch evt.Action {
	case ActionRemoved, ActionFailed:
		s.logger.Warn("crawl progress", fields...)
	default:
		s.logger.Info("crawl progress", fields...)
	}
}
