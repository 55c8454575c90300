package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/ledger"
)

// Repository persists catalog entities in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) InsertCategory(ctx context.Context, c Category) (Category, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id, created_at`,
		c.Name, c.Description)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return Category{}, fmt.Errorf("catalog: insert category: %w", err)
	}
	return c, nil
}

func (r *Repository) InsertUnit(ctx context.Context, u Unit) (Unit, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO units (display_name, unit_name) VALUES ($1, $2) RETURNING id, created_at`,
		u.DisplayName, u.UnitName)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return Unit{}, fmt.Errorf("catalog: insert unit: %w", err)
	}
	return u, nil
}

func (r *Repository) InsertVendor(ctx context.Context, v Vendor) (Vendor, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO vendors (name, address, mobile, email, opening_balance)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		v.Name, v.Address, v.Mobile, v.Email, v.OpeningBalance)
	if err := row.Scan(&v.ID, &v.CreatedAt); err != nil {
		return Vendor{}, fmt.Errorf("catalog: insert vendor: %w", err)
	}
	return v, nil
}

func (r *Repository) InsertItem(ctx context.Context, item ledger.Item) (ledger.Item, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO items (name, category_id, unit_id, vendor_id, has_expiry, expiry_date,
		                    opening_qty, price, reorder_level, stock_qty)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		item.Name, item.CategoryID, item.UnitID, item.VendorID, item.HasExpiry, item.ExpiryDate,
		item.OpeningQty, item.Price, item.ReorderLevel, item.StockQty)
	if err := row.Scan(&item.ID, &item.CreatedAt); err != nil {
		return ledger.Item{}, fmt.Errorf("catalog: insert item: %w", err)
	}
	return item, nil
}
