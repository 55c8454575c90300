package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/app"
	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/registry"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	registryRepo := registry.NewRepository(pool)
	itemRegistry := registry.NewRegistry(registryRepo, logger, nil)

	expiryJob := jobs.NewExpiryScanJob(itemRegistry, logger, cfg.ExpiryWindowDays)
	refreshJob := jobs.NewRegistryRefreshJob(itemRegistry, logger)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, 24*time.Hour)

	expiryTask, err := jobs.NewExpiryScanTask(jobs.ExpiryScanPayload{WindowDays: cfg.ExpiryWindowDays})
	if err != nil {
		logger.Error("build expiry scan task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskExpiryScan, Handler: expiryJob.Handle},
			{Type: jobs.TaskRegistryRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 7 * * *", Task: expiryTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
			{Spec: "*/15 * * * *", Task: jobs.NewRegistryRefreshTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
			{Spec: "30 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
