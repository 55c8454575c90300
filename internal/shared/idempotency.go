// Package shared holds small cross-module infrastructure.
package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyStore persists submitted request keys so the same logical
// transaction is applied at most once, even when the front end re-sends it.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// ErrIdempotencyConflict indicates the key was already submitted.
var ErrIdempotencyConflict = errors.New("shared: request already processed")

// Reserve claims a key for the given module before the work starts.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, module string) error {
	if s == nil || s.pool == nil {
		return errors.New("shared: idempotency store not initialised")
	}
	if key == "" {
		return errors.New("shared: idempotency key required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`,
		key, module, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return fmt.Errorf("shared: reserve idempotency key: %w", err)
	}
	return nil
}

// Release frees a key after the guarded work failed, so the caller may retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}

// Cleanup removes entries older than the retention window.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil || s.pool == nil {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	return err
}
