package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"
	"quest-server/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SelectionProcessor applies one queued selection event to the counters.
type SelectionProcessor struct {
	registry interfaces.OptionRegistry
	counter  interfaces.SelectionCounter
	timeout  time.Duration
	metrics  *service.Metrics
	logger   *zap.Logger
}

// NewSelectionProcessor creates a processor for the stats worker.
func NewSelectionProcessor(registry interfaces.OptionRegistry, counter interfaces.SelectionCounter, timeout time.Duration, metrics *service.Metrics, logger *zap.Logger) *SelectionProcessor {
	return &SelectionProcessor{
		registry: registry,
		counter:  counter,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger.Named("SelectionProcessor"),
	}
}

// ProcessMessage acks applied events, drops malformed ones and requeues storage failures.
func (p *SelectionProcessor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	log := p.logger.With(zap.Uint64("delivery_tag", d.DeliveryTag))

	var event models.SelectionEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.StoryID == "" || event.NodeID == "" {
		log.Error("Malformed selection event, dropping", zap.Error(err), zap.ByteString("body", d.Body))
		p.metrics.StatsFailure("malformed")
		if rejErr := d.Reject(false); rejErr != nil {
			log.Error("Reject failed", zap.Error(rejErr))
		}
		return
	}
	log = log.With(zap.String("storyID", event.StoryID), zap.String("nodeID", event.NodeID), zap.String("option", event.OptionText))

	processCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := service.ApplySelection(processCtx, p.registry, p.counter, event)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("Ack failed", zap.Error(ackErr))
			return
		}
		log.Debug("Selection applied")
	case errors.Is(err, models.ErrNotFound):
		// Вариант удален из каталога: повтор ничего не даст.
		p.metrics.StatsFailure("unknown_option")
		log.Warn("Selection refers to an unregistered option, dropping", zap.Error(err))
		if rejErr := d.Reject(false); rejErr != nil {
			log.Error("Reject failed", zap.Error(rejErr))
		}
	default:
		p.metrics.StatsFailure("storage")
		log.Error("Failed to apply selection, requeueing", zap.Error(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("Nack failed", zap.Error(nackErr))
		}
	}
}
