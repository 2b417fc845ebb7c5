package observer

import (
	"context"

	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// LoggerObserver writes every event as a structured log line. The server
// registers it when the observer logger setting is enabled (the default),
// independent of whatever alert sink an operator wires up on top.
type LoggerObserver struct {
	logger *logger.Logger
	filter EventFilter
}

// NewLoggerObserver builds an observer that logs through l.
func NewLoggerObserver(l *logger.Logger) *LoggerObserver {
	return &LoggerObserver{logger: l}
}

// Name implements Observer.
func (o *LoggerObserver) Name() string { return "logger" }

// Filter implements Observer.
func (o *LoggerObserver) Filter() EventFilter { return o.filter }

// OnEvent implements Observer.
func (o *LoggerObserver) OnEvent(ctx context.Context, event Event) error {
	args := []any{
		"event_type", string(event.Type),
		"campaign_id", event.CampaignID,
		"status", event.Status,
	}
	if event.LeadID != nil {
		args = append(args, "lead_id", *event.LeadID)
	}
	if event.StepID != nil {
		args = append(args, "step_id", *event.StepID)
	}
	if event.StepType != nil {
		args = append(args, "step_type", *event.StepType)
	}
	if event.DurationMs != nil {
		args = append(args, "duration_ms", *event.DurationMs)
	}
	if event.Message != nil {
		args = append(args, "message", *event.Message)
	}

	if event.Error != nil {
		args = append(args, "error", event.Error)
		o.logger.ErrorContext(ctx, "engine event", args...)
		return nil
	}
	o.logger.InfoContext(ctx, "engine event", args...)
	return nil
}
