package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quest-server/internal/catalog"
	"quest-server/internal/config"
	"quest-server/internal/database"
	"quest-server/internal/handler"
	"quest-server/internal/interfaces"
	"quest-server/internal/logger"
	"quest-server/internal/messaging"
	"quest-server/internal/middleware"
	"quest-server/internal/platform"
	"quest-server/internal/service"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// Конфиг загружаем до логгера, ошибки пишем стандартным log.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Service: "quest-server", Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Starting quest-server", cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.StoriesDir, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to load story catalog", zap.Error(err))
	}
	if len(cat.Stories()) == 0 {
		zapLogger.Fatal("No playable stories found", zap.String("dir", cfg.StoriesDir), zap.Int("rejected", len(cat.Rejected())))
	}

	pool, err := database.NewPool(ctx, database.PoolConfig{
		DSN:             cfg.GetDSN(),
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBIdleTimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.GetDSN()); err != nil {
			zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		zapLogger.Info("Migrations applied")
	}

	registry, metrics := platform.NewMetricsRegistry()

	progressRepo := database.NewPgProgressRepository(pool, cfg.StoreTimeout, zapLogger)
	optionRepo, counter, closeCounter, err := platform.StatsStores(ctx, cfg, pool, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialise selection statistics", zap.Error(err))
	}
	defer closeCounter()

	// Статистика необязательна: без реестра вариантов она просто не пишется.
	if err := optionRepo.Register(ctx, cat.OptionKeys()); err != nil {
		zapLogger.Error("Failed to register story options, selection stats will be incomplete", zap.Error(err))
	}

	recorder, closeRecorder := newRecorder(ctx, cfg, optionRepo, counter, metrics, zapLogger)
	defer closeRecorder()

	progression := service.NewProgressionService(cat, progressRepo, recorder, zapLogger, service.WithMetrics(metrics))
	stats := service.NewStatsService(cat, optionRepo, counter, zapLogger)
	sessionHandler := handler.NewSessionHandler(progression, stats, registry, pool, zapLogger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.EchoZapLogger(zapLogger, "/healthz", "/metrics"))
	e.Use(echoMiddleware.Recover())
	sessionHandler.RegisterRoutes(e)

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("quest-server stopped")
}

// newRecorder selects how selection statistics are written (STATS_MODE).
func newRecorder(
	ctx context.Context,
	cfg *config.Config,
	registry interfaces.OptionRegistry,
	counter interfaces.SelectionCounter,
	metrics *service.Metrics,
	zapLogger *zap.Logger,
) (interfaces.SelectionRecorder, func()) {
	switch cfg.StatsMode {
	case config.StatsModeOff:
		zapLogger.Info("Selection statistics disabled")
		return service.NopSelectionRecorder(), func() {}
	case config.StatsModeQueue:
		conn, err := platform.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, platform.DefaultRetry, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		ch, err := conn.Channel()
		if err != nil {
			zapLogger.Fatal("Failed to open RabbitMQ channel", zap.Error(err))
		}
		publisher, err := messaging.NewSelectionPublisher(ch, cfg.StatsQueueName, metrics, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to create selection publisher", zap.Error(err))
		}
		return publisher, func() {
			_ = ch.Close()
			_ = conn.Close()
		}
	default:
		return service.NewInlineSelectionRecorder(registry, counter, cfg.StoreTimeout, metrics, zapLogger), func() {}
	}
}
