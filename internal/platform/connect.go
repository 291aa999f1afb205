// Package platform dials the external brokers and caches used by both binaries.
package platform

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Retry controls connection attempts at startup.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetry covers brokers that start together with the service in docker compose.
var DefaultRetry = Retry{Attempts: 5, Delay: 3 * time.Second}

func (r Retry) do(ctx context.Context, what string, logger *zap.Logger, fn func() error) error {
	attempts := max(r.Attempts, 1)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		logger.Warn("Connection attempt failed",
			zap.String("target", what),
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_delay", r.Delay),
			zap.Error(err),
		)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(r.Delay):
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", what, attempts, err)
}

// ConnectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func ConnectRabbitMQ(ctx context.Context, url string, retry Retry, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	err := retry.do(ctx, "rabbitmq", logger, func() error {
		var dialErr error
		conn, dialErr = amqp.Dial(url)
		return dialErr
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to RabbitMQ")
	return conn, nil
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ConnectRedis creates a client and waits until it answers PING.
func ConnectRedis(ctx context.Context, cfg RedisConfig, retry Retry, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	err := retry.do(ctx, "redis", logger, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	logger.Info("Connected to Redis", zap.String("address", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}
