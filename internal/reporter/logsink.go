package reporter

import (
	"context"
	"log/slog"
)

// LogSink writes each hit as a structured log record.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink logs through logger (slog.Default when nil) at level.
func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, level: level}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Send(ctx context.Context, h *Hit) error {
	attrs := []any{
		"hit_id", h.ID,
		"hit_type", h.Type,
		"client_id", h.ClientID,
	}
	if h.Page != "" {
		attrs = append(attrs, "page", h.Page)
	}
	switch h.Type {
	case HitEvent:
		attrs = append(attrs, "category", h.Category, "action", h.Action)
		if h.Label != "" {
			attrs = append(attrs, "label", h.Label)
		}
		if h.Value != nil {
			attrs = append(attrs, "value", *h.Value)
		}
		if h.NonInteraction {
			attrs = append(attrs, "non_interaction", true)
		}
	case HitException:
		attrs = append(attrs, "description", h.Description, "fatal", h.Fatal)
	}
	if len(h.Dimensions) > 0 {
		attrs = append(attrs, "dimensions", h.Dimensions)
	}
	l.logger.Log(ctx, l.level, "analytics hit", attrs...)
	return nil
}
