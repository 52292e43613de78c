package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/config"
	"github.com/printforge/marketplace-api/internal/notify"
	"github.com/printforge/marketplace-api/internal/obs"
	"github.com/printforge/marketplace-api/internal/queue"
)

// nopDirectory is used until a real user directory backs the email channel.
type nopDirectory struct{}

func (nopDirectory) EmailFor(context.Context, string) (string, error) { return "", nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "printforge"), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	var mail common.EmailSender = common.NopEmailSender{}
	delivery := notify.DeliveryWorker{
		Store:     &notify.PGStore{Pool: pool},
		Mail:      mail,
		Directory: nopDirectory{},
		Enabled:   cfg.NotifyEmailEnabled,
		Logger:    logger,
	}

	worker := queue.Worker{
		R:                 redisClient,
		Prefix:            cfg.QueueRedisPrefix,
		Kind:              notify.DeliveryTask(),
		Concurrency:       4,
		VisibilityTimeout: 30 * time.Second,
		Handler: func(ctx context.Context, task queue.Task) error {
			err := delivery.Handle(ctx, task)
			result := "ok"
			if err != nil {
				result = "error"
			}
			obs.QueueTasksTotal.WithLabelValues(task.Kind, result).Inc()
			return err
		},
		RetryBase: time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("kind", notify.DeliveryTask()).Msg("worker starting")
	if err := worker.Run(runCtx); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
	logger.Info().Msg("worker stopped")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
