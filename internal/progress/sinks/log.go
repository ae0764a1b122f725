package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/progress"
)

// LogSink emits structured logs for progress streams. Listing completions are
// logged at debug level; run milestones at info.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.Stringer("run_id", evt.RunUUID()),
			zap.String("stage", string(evt.Stage)),
		}
		switch evt.Stage {
		case progress.StageListingDone:
			fields = append(fields,
				zap.String("url", evt.URL),
				zap.String("status_class", string(evt.StatusClass)),
				zap.Bool("unavailable", evt.Unavailable),
				zap.Int64("bytes", evt.Bytes),
				zap.Duration("dur", evt.Dur),
			)
			s.logger.Debug("listing resolved", fields...)
		case progress.StageIndexDone, progress.StageDispatchStart:
			fields = append(fields, zap.String("url", evt.URL), zap.Int64("count", evt.Count))
			s.logger.Info("progress event", fields...)
		default:
			fields = append(fields, zap.Duration("dur", evt.Dur), zap.String("note", evt.Note))
			s.logger.Info("progress event", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
