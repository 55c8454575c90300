package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/insights"
	"github.com/stockroom-hq/stockroom/internal/registry"
)

// ExpiryScanJob walks the item registry for stock approaching its expiry date
// and logs an alert per affected item. It reloads the snapshot first so the
// sweep never reports from stale state.
type ExpiryScanJob struct {
	Registry   *registry.Registry
	Logger     *slog.Logger
	WindowDays int
	clock      func() time.Time
}

// NewExpiryScanJob wires dependencies for the expiry sweep handler.
func NewExpiryScanJob(reg *registry.Registry, logger *slog.Logger, windowDays int) *ExpiryScanJob {
	return &ExpiryScanJob{
		Registry:   reg,
		Logger:     logger,
		WindowDays: windowDays,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes expiry sweep tasks.
func (j *ExpiryScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Registry == nil {
		return errors.New("expiry scan: handler not configured")
	}
	var payload ExpiryScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	window := payload.WindowDays
	if window <= 0 {
		window = j.WindowDays
	}

	snap, err := j.Registry.Refresh(ctx)
	if err != nil {
		return err
	}

	alerts := insights.ExpiryAlerts(snap, j.clock(), window)
	for _, alert := range alerts {
		j.Logger.Warn("item approaching expiry",
			slog.String("item_id", alert.ItemID),
			slog.String("name", alert.Name),
			slog.Int("days_remaining", alert.DaysRemaining),
		)
	}
	j.Logger.Info("expiry scan complete",
		slog.Int("window_days", window),
		slog.Int("alerts", len(alerts)),
	)
	return nil
}

// RegistryRefreshJob reloads the item registry snapshot on a schedule so the
// dashboard recovers even when an after-commit hook was lost.
type RegistryRefreshJob struct {
	Registry *registry.Registry
	Logger   *slog.Logger
}

// NewRegistryRefreshJob wires dependencies for the refresh handler.
func NewRegistryRefreshJob(reg *registry.Registry, logger *slog.Logger) *RegistryRefreshJob {
	return &RegistryRefreshJob{Registry: reg, Logger: logger}
}

// Handle processes snapshot reload tasks.
func (j *RegistryRefreshJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Registry == nil {
		return errors.New("registry refresh: handler not configured")
	}
	snap, err := j.Registry.Refresh(ctx)
	if err != nil {
		return err
	}
	j.Logger.Info("registry snapshot reloaded",
		slog.Int("items", len(snap.Items)),
		slog.Time("taken_at", snap.TakenAt),
	)
	return nil
}
