package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/auditgate/expense-fraud-engine/internal/api/rest"
	"github.com/auditgate/expense-fraud-engine/internal/history"
	"github.com/auditgate/expense-fraud-engine/internal/infrastructure/config"
	"github.com/auditgate/expense-fraud-engine/internal/service/fraud"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize history store", zap.Error(err))
	}

	svc, err := fraud.NewService(&cfg.Scoring, nil, logger)
	if err != nil {
		logger.Fatal("failed to initialize scoring service", zap.Error(err))
	}

	server := rest.NewServer(cfg, svc, store, logger)

	logger.Info("starting expense fraud engine",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
		zap.String("history_backend", cfg.History.Backend))

	if err := server.Start(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (history.Store, error) {
	if cfg.History.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		return history.NewRedisStore(ctx, client, cfg.Redis.Key, cfg.History.MaxSize, logger)
	}
	return history.NewMemoryStore(cfg.History.MaxSize, logger), nil
}
