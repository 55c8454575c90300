package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/platform/db"
)

// Repository implements Store on PostgreSQL. The movement tables mirror the
// persisted collections: purchases, consumptions, returns, adjustments. Ids
// and creation timestamps are assigned by the database at commit time.
type Repository struct {
	pool     *pgxpool.Pool
	attempts int
	onRetry  func()
}

// NewRepository constructs the ledger store. attempts caps optimistic-conflict
// retries; onRetry (optional) is called once per retried attempt.
func NewRepository(pool *pgxpool.Pool, attempts int, onRetry func()) *Repository {
	return &Repository{pool: pool, attempts: attempts, onRetry: onRetry}
}

// Apply runs the mutation inside a repeatable-read transaction. The item row
// is re-read on every attempt, so a conflicting commit from another client
// simply restarts the closure against fresh state. Either both the stock
// update and the movement row commit, or neither does.
func (r *Repository) Apply(ctx context.Context, itemID string, fn Mutation) (Item, Movement, error) {
	if r == nil || r.pool == nil {
		return Item{}, Movement{}, ErrNotConfigured
	}

	var item Item
	var movement Movement
	notify := func(int, error) {
		if r.onRetry != nil {
			r.onRetry()
		}
	}
	err := db.WithTxRetry(ctx, r.pool, r.attempts, notify, func(tx pgx.Tx) error {
		current, err := getItemTx(ctx, tx, itemID)
		if err != nil {
			return err
		}
		next, appended, err := fn(current)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE items SET stock_qty = $2 WHERE id = $1`, next.ID, next.StockQty); err != nil {
			return fmt.Errorf("ledger: update stock: %w", err)
		}
		stored, err := insertMovementTx(ctx, tx, appended)
		if err != nil {
			return err
		}
		item = next
		movement = stored
		return nil
	})
	if err != nil {
		return Item{}, Movement{}, mapStoreErr(err)
	}
	return item, movement, nil
}

const itemColumns = `id, name, COALESCE(category_id, ''), COALESCE(unit_id, ''), COALESCE(vendor_id, ''),
	has_expiry, expiry_date, opening_qty, price, reorder_level, stock_qty, created_at`

func getItemTx(ctx context.Context, tx pgx.Tx, id string) (Item, error) {
	row := tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("ledger: read item: %w", err)
	}
	return item, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.CategoryID,
		&item.UnitID,
		&item.VendorID,
		&item.HasExpiry,
		&item.ExpiryDate,
		&item.OpeningQty,
		&item.Price,
		&item.ReorderLevel,
		&item.StockQty,
		&item.CreatedAt,
	)
	return item, err
}

func insertMovementTx(ctx context.Context, tx pgx.Tx, m Movement) (Movement, error) {
	var row pgx.Row
	switch m.Kind {
	case MovementPurchase:
		row = tx.QueryRow(ctx,
			`INSERT INTO purchases (item_id, vendor_id, quantity, total_amount)
			 VALUES ($1, NULLIF($2, ''), $3, $4)
			 RETURNING id, created_at`,
			m.ItemID, m.VendorID, m.Quantity, m.TotalAmount)
	case MovementConsumption:
		row = tx.QueryRow(ctx,
			`INSERT INTO consumptions (item_id, quantity)
			 VALUES ($1, $2)
			 RETURNING id, created_at`,
			m.ItemID, m.Quantity)
	case MovementReturn:
		row = tx.QueryRow(ctx,
			`INSERT INTO returns (item_id, quantity, reason)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			m.ItemID, m.Quantity, m.Reason)
	case MovementAdjustment:
		row = tx.QueryRow(ctx,
			`INSERT INTO adjustments (item_id, quantity, direction, reason)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			m.ItemID, m.Quantity, string(m.Direction), m.Reason)
	default:
		return Movement{}, fmt.Errorf("ledger: unknown movement kind %q", m.Kind)
	}
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return Movement{}, fmt.Errorf("ledger: append movement: %w", err)
	}
	return m, nil
}

// mapStoreErr keeps domain errors intact and folds everything else, including
// an exhausted retry ceiling and connectivity failures, into ErrTransactionAborted.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrInsufficientStock):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	}
}
