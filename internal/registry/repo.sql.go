package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/catalog"
	"github.com/stockroom-hq/stockroom/internal/ledger"
)

// Repository implements ReaderPort on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), created_at FROM categories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
		return c, err
	})
}

func (r *Repository) ListUnits(ctx context.Context) ([]catalog.Unit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, display_name, COALESCE(unit_name, ''), created_at FROM units ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list units: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Unit, error) {
		var u catalog.Unit
		err := row.Scan(&u.ID, &u.DisplayName, &u.UnitName, &u.CreatedAt)
		return u, err
	})
}

func (r *Repository) ListVendors(ctx context.Context) ([]catalog.Vendor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, COALESCE(address, ''), COALESCE(mobile, ''), COALESCE(email, ''),
		        opening_balance, created_at
		 FROM vendors ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list vendors: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Vendor, error) {
		var v catalog.Vendor
		err := row.Scan(&v.ID, &v.Name, &v.Address, &v.Mobile, &v.Email, &v.OpeningBalance, &v.CreatedAt)
		return v, err
	})
}

func (r *Repository) ListItems(ctx context.Context) ([]ledger.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, COALESCE(category_id, ''), COALESCE(unit_id, ''), COALESCE(vendor_id, ''),
		        has_expiry, expiry_date, opening_qty, price, reorder_level, stock_qty, created_at
		 FROM items ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Item, error) {
		var it ledger.Item
		err := row.Scan(&it.ID, &it.Name, &it.CategoryID, &it.UnitID, &it.VendorID,
			&it.HasExpiry, &it.ExpiryDate, &it.OpeningQty, &it.Price, &it.ReorderLevel,
			&it.StockQty, &it.CreatedAt)
		return it, err
	})
}

func (r *Repository) ListPurchases(ctx context.Context) ([]ledger.Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, COALESCE(vendor_id, ''), quantity, total_amount, created_at
		 FROM purchases ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list purchases: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Movement, error) {
		m := ledger.Movement{Kind: ledger.MovementPurchase}
		err := row.Scan(&m.ID, &m.ItemID, &m.VendorID, &m.Quantity, &m.TotalAmount, &m.CreatedAt)
		return m, err
	})
}

func (r *Repository) ListConsumptions(ctx context.Context) ([]ledger.Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, quantity, created_at FROM consumptions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list consumptions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Movement, error) {
		m := ledger.Movement{Kind: ledger.MovementConsumption}
		err := row.Scan(&m.ID, &m.ItemID, &m.Quantity, &m.CreatedAt)
		return m, err
	})
}

func (r *Repository) ListReturns(ctx context.Context) ([]ledger.Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, quantity, COALESCE(reason, ''), created_at
		 FROM returns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list returns: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Movement, error) {
		m := ledger.Movement{Kind: ledger.MovementReturn}
		err := row.Scan(&m.ID, &m.ItemID, &m.Quantity, &m.Reason, &m.CreatedAt)
		return m, err
	})
}

func (r *Repository) ListAdjustments(ctx context.Context) ([]ledger.Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, quantity, direction, COALESCE(reason, ''), created_at
		 FROM adjustments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: list adjustments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Movement, error) {
		m := ledger.Movement{Kind: ledger.MovementAdjustment}
		var direction string
		err := row.Scan(&m.ID, &m.ItemID, &m.Quantity, &direction, &m.Reason, &m.CreatedAt)
		m.Direction = ledger.AdjustmentDirection(direction)
		return m, err
	})
}
