package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRequest records goods received from the item's vendor.
type PurchaseRequest struct {
	ItemID      string          `json:"item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ConsumptionRequest applies a signed consumption delta: positive consumes,
// negative undoes a prior consumption.
type ConsumptionRequest struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReturnRequest sends goods back to the vendor.
type ReturnRequest struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" validate:"required"`
}

// AdjustmentRequest corrects stock in the given direction.
type AdjustmentRequest struct {
	ItemID    string          `json:"item_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Direction string          `json:"direction" validate:"required,oneof=increase decrease"`
	Reason    string          `json:"reason" validate:"required"`
}

// MovementResponse reports the committed movement and the resulting stock.
type MovementResponse struct {
	MovementID  string          `json:"movement_id"`
	Kind        MovementKind    `json:"kind"`
	ItemID      string          `json:"item_id"`
	NewStockQty decimal.Decimal `json:"new_stock_qty"`
	CreatedAt   time.Time       `json:"created_at"`
}
