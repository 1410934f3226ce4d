package render

import (
	"resdb-mcp/internal/events"

	"go.uber.org/zap"
)

// LogRenderer writes events as structured log entries.
type LogRenderer struct {
	logger *zap.Logger
}

// NewLogRenderer wraps logger.
func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) Emit(event events.Event) {
	switch payload := event.Payload.(type) {
	case events.ToolCallStartedPayload:
		r.logger.Debug("tool call started",
			zap.String("request_id", payload.RequestID),
			zap.String("tool", payload.ToolName),
			zap.String("input", payload.Input))
	case events.ToolCallFinishedPayload:
		fields := []zap.Field{
			zap.String("request_id", payload.RequestID),
			zap.String("tool", payload.ToolName),
			zap.Int64("duration_ms", payload.DurationMs),
			zap.Int("bytes", payload.ByteCount),
		}
		if event.Type == events.ToolCallFailed {
			r.logger.Warn("tool call failed", append(fields, zap.String("kind", payload.ErrorKind), zap.String("error", payload.Preview))...)
			return
		}
		r.logger.Info("tool call finished", fields...)
	case events.FallbackPayload:
		r.logger.Warn("primary path failed, falling back",
			zap.String("request_id", payload.RequestID),
			zap.String("tool", payload.ToolName),
			zap.String("from", payload.From),
			zap.String("to", payload.To),
			zap.String("reason", payload.Reason))
	}
}

func (r *LogRenderer) Close() error {
	_ = r.logger.Sync()
	return nil
}
