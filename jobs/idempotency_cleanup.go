package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

// IdempotencyCleanupJob expires stored request keys once they are old enough
// that a duplicate submission can no longer be in flight.
type IdempotencyCleanupJob struct {
	Store     *shared.IdempotencyStore
	Logger    *slog.Logger
	Retention time.Duration
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger, retention time.Duration) *IdempotencyCleanupJob {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Retention: retention}
}

// Handle processes cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	if err := j.Store.Cleanup(ctx, j.Retention); err != nil {
		return err
	}
	j.Logger.Info("idempotency keys cleaned", slog.Duration("retention", j.Retention))
	return nil
}
