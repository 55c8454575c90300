package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/app"
	"github.com/stockroom-hq/stockroom/internal/catalog"
	"github.com/stockroom-hq/stockroom/internal/insights"
	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/observability"
	"github.com/stockroom-hq/stockroom/internal/platform/cache"
	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/registry"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	registryRepo := registry.NewRepository(pool)
	itemRegistry := registry.NewRegistry(registryRepo, logger, metrics.ObserveRefreshFailure)
	if _, err := itemRegistry.Refresh(ctx); err != nil {
		logger.Warn("initial registry refresh failed, starting with empty snapshot", slog.Any("error", err))
	}

	insightsCache := insights.NewCache(redisClient, cfg.DashboardCacheTTL)
	insightsHandler := insights.NewHandler(logger, itemRegistry, insightsCache, cfg.ExpiryWindowDays)

	// Every committed mutation reloads the snapshot and drops the cached
	// dashboard so the next read reflects the write.
	afterCommit := func(r *http.Request) {
		if _, err := itemRegistry.Refresh(r.Context()); err != nil {
			logger.Warn("registry refresh after commit", slog.Any("error", err))
		}
		insightsHandler.Invalidate(r.Context())
	}

	idempotencyStore := shared.NewIdempotencyStore(pool)

	ledgerRepo := ledger.NewRepository(pool, cfg.LedgerTxAttempts, metrics.ObserveTxRetry)
	ledgerEngine := ledger.NewEngine(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerEngine, idempotencyStore, metrics, afterCommit)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, itemRegistry, afterCommit)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		CatalogHandler:  catalogHandler,
		LedgerHandler:   ledgerHandler,
		InsightsHandler: insightsHandler,
		JobsHandler:     jobsHandler,
		Pool:            pool,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
