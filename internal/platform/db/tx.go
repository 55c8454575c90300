package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRetriesExhausted marks a transaction that kept colliding with concurrent
// writers until the retry ceiling was reached.
var ErrRetriesExhausted = errors.New("platform/db: tx retries exhausted")

// RetryNotify is invoked once per retried attempt, before the backoff sleep.
type RetryNotify func(attempt int, err error)

// WithTx executes a function within a transaction using the RepeatableRead
// isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// WithTxRetry runs fn under WithTx and transparently retries serialization
// failures. Under RepeatableRead a commit that raced a concurrent writer on
// the same rows fails with SQLSTATE 40001/40P01; the whole closure is re-run
// against freshly read state, which is the optimistic-transaction contract
// callers rely on. Non-retryable errors are returned as-is.
func WithTxRetry(ctx context.Context, pool *pgxpool.Pool, attempts int, notify RetryNotify, fn func(pgx.Tx) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := WithTx(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		last = err
		if notify != nil {
			notify(attempt, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, last)
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
