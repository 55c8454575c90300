package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind enumerates the supported stock movements.
type MovementKind string

const (
	// MovementPurchase increases stock when goods arrive from a vendor.
	MovementPurchase MovementKind = "purchase"
	// MovementConsumption decreases stock when goods are used; a negative
	// quantity undoes a prior consumption.
	MovementConsumption MovementKind = "consumption"
	// MovementReturn decreases stock when goods go back to the vendor.
	MovementReturn MovementKind = "return"
	// MovementAdjustment corrects stock in either direction.
	MovementAdjustment MovementKind = "adjustment"
)

// AdjustmentDirection selects the sign of an adjustment.
type AdjustmentDirection string

const (
	DirectionIncrease AdjustmentDirection = "increase"
	DirectionDecrease AdjustmentDirection = "decrease"
)

// Item is the single stock-carrying entity. StockQty is mutated only through
// Engine.Apply; everything else is set at creation time.
type Item struct {
	ID           string
	Name         string
	CategoryID   string
	UnitID       string
	VendorID     string
	HasExpiry    bool
	ExpiryDate   *time.Time
	OpeningQty   decimal.Decimal
	Price        decimal.Decimal
	ReorderLevel decimal.Decimal
	StockQty     decimal.Decimal
	CreatedAt    time.Time
}

// Movement is one immutable entry of the stock audit trail. Quantity keeps the
// sign convention of its kind: signed for consumptions, positive otherwise.
// ID and CreatedAt are assigned by the store at commit time.
type Movement struct {
	ID       string
	Kind     MovementKind
	ItemID   string
	Quantity decimal.Decimal

	// Purchase only: vendor snapshot taken from the item, and money spent.
	VendorID    string
	TotalAmount decimal.Decimal

	// Adjustment only.
	Direction AdjustmentDirection

	// Return and adjustment only.
	Reason string

	CreatedAt time.Time
}

// StockDelta normalises the recorded quantity to the signed delta the
// movement applied to stock. The signed sum of deltas per item equals
// stockQty minus openingQty.
func (m Movement) StockDelta() decimal.Decimal {
	switch m.Kind {
	case MovementPurchase:
		return m.Quantity
	case MovementConsumption:
		return m.Quantity.Neg()
	case MovementReturn:
		return m.Quantity.Neg()
	case MovementAdjustment:
		if m.Direction == DirectionDecrease {
			return m.Quantity.Neg()
		}
		return m.Quantity
	}
	return decimal.Zero
}

// MovementInput carries one requested stock movement. Quantity is the signed
// consumption delta for MovementConsumption and a positive magnitude for the
// other kinds.
type MovementInput struct {
	ItemID      string
	Kind        MovementKind
	Quantity    decimal.Decimal
	Direction   AdjustmentDirection
	Reason      string
	TotalAmount decimal.Decimal
}

// Result is returned after a movement commits.
type Result struct {
	Item     Item
	Movement Movement
}

var (
	// ErrNotConfigured means the backing store is absent; mutations refuse to start.
	ErrNotConfigured = errors.New("ledger: store not configured")
	// ErrItemNotFound means the item id did not resolve at transaction time.
	ErrItemNotFound = errors.New("ledger: item not found")
	// ErrInsufficientStock means the movement would drive stock negative.
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
	// ErrTransactionAborted means the retry ceiling was exhausted or connectivity failed.
	ErrTransactionAborted = errors.New("ledger: transaction aborted")
	// ErrValidation means a precondition failed before any transaction started.
	ErrValidation = errors.New("ledger: validation failed")
)
