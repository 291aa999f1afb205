package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"quest-server/internal/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.SelectionCounter = (*redisSelectionCounter)(nil)

type redisSelectionCounter struct {
	client  *redis.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisSelectionCounter creates a SelectionCounter that keeps one hash per node:
// option_selections:{storyID}:{nodeID} -> { optionID: count }
func NewRedisSelectionCounter(client *redis.Client, timeout time.Duration, logger *zap.Logger) interfaces.SelectionCounter {
	return &redisSelectionCounter{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("RedisSelectionCounter"),
	}
}

func selectionKey(storyID, nodeID string) string {
	return fmt.Sprintf("option_selections:%s:%s", storyID, nodeID)
}

func (r *redisSelectionCounter) IncrementSelection(ctx context.Context, storyID, nodeID string, optionID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.HIncrBy(ctx, selectionKey(storyID, nodeID), optionID.String(), 1).Err(); err != nil {
		r.logger.Warn("Failed to increment selection", zap.String("storyID", storyID), zap.String("nodeID", nodeID), zap.Error(err))
		return storageError(err)
	}
	return nil
}

func (r *redisSelectionCounter) Selections(ctx context.Context, storyID, nodeID string) (map[uuid.UUID]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.HGetAll(ctx, selectionKey(storyID, nodeID)).Result()
	if err != nil {
		return nil, storageError(err)
	}
	out := make(map[uuid.UUID]int64, len(raw))
	for field, value := range raw {
		id, err := uuid.Parse(field)
		if err != nil {
			r.logger.Warn("Skipping malformed selection field", zap.String("field", field))
			continue
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			r.logger.Warn("Skipping malformed selection value", zap.String("field", field), zap.String("value", value))
			continue
		}
		out[id] = count
	}
	return out, nil
}
