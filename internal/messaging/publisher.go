package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"
	"quest-server/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishAttempts = 3
	publishTimeout  = 5 * time.Second
)

// SelectionPublisher pushes selection events to the stats queue (STATS_MODE=queue).
// Failures are logged and counted; the player's transition is never affected.
type SelectionPublisher struct {
	channel   Channel
	queueName string
	metrics   *service.Metrics
	logger    *zap.Logger
}

var _ interfaces.SelectionRecorder = (*SelectionPublisher)(nil)

// NewSelectionPublisher declares the queue and returns a publisher bound to it.
func NewSelectionPublisher(ch Channel, queueName string, metrics *service.Metrics, logger *zap.Logger) (*SelectionPublisher, error) {
	if ch == nil {
		return nil, errors.New("selection publisher: канал RabbitMQ не инициализирован")
	}
	if _, err := declareStatsQueue(ch, queueName); err != nil {
		return nil, fmt.Errorf("selection publisher: %w", err)
	}
	p := &SelectionPublisher{
		channel:   ch,
		queueName: queueName,
		metrics:   metrics,
		logger:    logger.Named("SelectionPublisher"),
	}
	p.logger.Info("Очередь статистики объявлена", zap.String("queue", queueName))
	return p, nil
}

// Record implements interfaces.SelectionRecorder.
func (p *SelectionPublisher) Record(ctx context.Context, event models.SelectionEvent) {
	log := p.logger.With(
		zap.String("storyID", event.StoryID),
		zap.String("nodeID", event.NodeID),
		zap.String("option", event.OptionText),
	)

	body, err := json.Marshal(event)
	if err != nil {
		p.metrics.StatsFailure("publish")
		log.Error("Failed to marshal selection event", zap.Error(err))
		return
	}

	// Переход уже сохранен, поэтому отмена входящего запроса не должна обрывать публикацию.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.publishMessage(ctx, body); err != nil {
		p.metrics.StatsFailure("publish")
		log.Warn("Selection event not published", zap.Error(err))
		return
	}
	log.Debug("Selection event published")
}

func (p *SelectionPublisher) publishMessage(ctx context.Context, body []byte) error {
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key (имя очереди)
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "quest-server",
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Debug("Publish attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == publishAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("публикация в очередь %s прервана: %w", p.queueName, errors.Join(err, ctx.Err()))
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после %d попыток: %w", p.queueName, publishAttempts, err)
}
