package platform

import (
	"context"

	"quest-server/internal/config"
	"quest-server/internal/database"
	"quest-server/internal/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// StatsStores builds the option registry and the counter backend chosen by STATS_BACKEND.
// The returned close function releases the Redis client, if any.
func StatsStores(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*database.PgOptionRepository, interfaces.SelectionCounter, func(), error) {
	registry := database.NewPgOptionRepository(pool, cfg.StoreTimeout, logger)
	if cfg.StatsBackend != config.StatsBackendRedis {
		return registry, registry, func() {}, nil
	}

	client, err := ConnectRedis(ctx, RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, DefaultRetry, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	counter := database.NewRedisSelectionCounter(client, cfg.StoreTimeout, logger)
	return registry, counter, func() { _ = client.Close() }, nil
}
