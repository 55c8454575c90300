package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type CreateUnitRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	UnitName    string `json:"unit_name" validate:"required"`
}

type CreateVendorRequest struct {
	Name           string          `json:"name" validate:"required"`
	Address        string          `json:"address"`
	Mobile         string          `json:"mobile"`
	Email          string          `json:"email" validate:"omitempty,email"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type UnitResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	UnitName    string    `json:"unit_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type VendorResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Mobile         string          `json:"mobile"`
	Email          string          `json:"email"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ItemResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CategoryID   string          `json:"category_id,omitempty"`
	UnitID       string          `json:"unit_id"`
	VendorID     string          `json:"vendor_id"`
	HasExpiry    bool            `json:"has_expiry"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	OpeningQty   decimal.Decimal `json:"opening_qty"`
	Price        decimal.Decimal `json:"price"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	StockQty     decimal.Decimal `json:"stock_qty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CreateItemRequest seeds stockQty from OpeningQty. CategoryID may be empty;
// the registry renders such items as uncategorized.
type CreateItemRequest struct {
	Name         string          `json:"name" validate:"required"`
	CategoryID   string          `json:"category_id"`
	UnitID       string          `json:"unit_id" validate:"required"`
	VendorID     string          `json:"vendor_id" validate:"required"`
	HasExpiry    bool            `json:"has_expiry"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	OpeningQty   decimal.Decimal `json:"opening_qty"`
	Price        decimal.Decimal `json:"price"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}
