package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quest-server/internal/config"
	"quest-server/internal/database"
	"quest-server/internal/logger"
	"quest-server/internal/messaging"
	"quest-server/internal/platform"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// workerConcurrency is the prefetch and worker count of the consumer.
const workerConcurrency = 4

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	zapLogger, err := logger.New(logger.Config{Service: "stats-worker", Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Starting stats-worker", cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.PoolConfig{
		DSN:             cfg.GetDSN(),
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBIdleTimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	registry, counter, closeCounter, err := platform.StatsStores(ctx, cfg, pool, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialise selection statistics", zap.Error(err))
	}
	defer closeCounter()

	conn, err := platform.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, platform.DefaultRetry, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	promRegistry, metrics := platform.NewMetricsRegistry()
	metricsServer := platform.NewMetricsServer(cfg.MetricsPort, promRegistry)
	go func() {
		zapLogger.Info("Starting metrics server", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}()

	processor := messaging.NewSelectionProcessor(registry, counter, cfg.StoreTimeout, metrics, zapLogger)
	consumer := messaging.NewConsumer(conn, zapLogger, cfg.StatsQueueName, workerConcurrency, processor)

	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Start() }()

	select {
	case <-ctx.Done():
		zapLogger.Info("Shutdown signal received")
		consumer.Stop()
		if err := <-errCh; err != nil {
			zapLogger.Error("Consumer stopped with error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			zapLogger.Fatal("Consumer failed", zap.Error(err))
		}
	}
	zapLogger.Info("stats-worker stopped")
}
