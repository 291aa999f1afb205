package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"go.uber.org/zap"
)

// ApplySelection resolves the persisted option id and increments its counter.
// Returns models.ErrNotFound when the option was never registered.
func ApplySelection(ctx context.Context, registry interfaces.OptionRegistry, counter interfaces.SelectionCounter, event models.SelectionEvent) error {
	optionID, err := registry.OptionID(ctx, event.StoryID, event.NodeID, event.OptionText)
	if err != nil {
		return fmt.Errorf("lookup option id: %w", err)
	}
	if err := counter.IncrementSelection(ctx, event.StoryID, event.NodeID, optionID); err != nil {
		return fmt.Errorf("increment selection: %w", err)
	}
	return nil
}

type inlineSelectionRecorder struct {
	registry interfaces.OptionRegistry
	counter  interfaces.SelectionCounter
	timeout  time.Duration
	metrics  *Metrics
	logger   *zap.Logger
}

// NewInlineSelectionRecorder records selections synchronously, right after the progress write.
func NewInlineSelectionRecorder(registry interfaces.OptionRegistry, counter interfaces.SelectionCounter, timeout time.Duration, metrics *Metrics, logger *zap.Logger) interfaces.SelectionRecorder {
	return &inlineSelectionRecorder{
		registry: registry,
		counter:  counter,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger.Named("InlineSelectionRecorder"),
	}
}

func (r *inlineSelectionRecorder) Record(ctx context.Context, event models.SelectionEvent) {
	// Переход уже зафиксирован, отмена запроса клиентом не должна терять статистику.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	err := ApplySelection(ctx, r.registry, r.counter, event)
	if err == nil {
		return
	}
	reason := "storage"
	if errors.Is(err, models.ErrNotFound) {
		reason = "unknown_option"
	}
	r.metrics.StatsFailure(reason)
	r.logger.Warn("Selection not recorded",
		zap.String("storyID", event.StoryID),
		zap.String("nodeID", event.NodeID),
		zap.String("option", event.OptionText),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

type nopSelectionRecorder struct{}

// NopSelectionRecorder discards selections (STATS_MODE=off).
func NopSelectionRecorder() interfaces.SelectionRecorder {
	return nopSelectionRecorder{}
}

func (nopSelectionRecorder) Record(context.Context, models.SelectionEvent) {}
