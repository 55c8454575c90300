package ledger

import (
	"context"
	"fmt"
)

// Mutation computes the next item state and the movement to append, given the
// item as read inside the transaction. It must be pure: the store may invoke
// it several times when optimistic conflicts force a retry.
type Mutation func(Item) (Item, Movement, error)

// Store is the atomic-apply primitive of the transactional document store.
// Apply re-reads the item, runs fn, and commits the stock update together
// with the appended movement, or nothing at all. Conflicting concurrent
// commits are retried transparently up to the store's ceiling.
type Store interface {
	Apply(ctx context.Context, itemID string, fn Mutation) (Item, Movement, error)
}

// Engine applies stock-affecting movements with all-or-nothing semantics.
type Engine struct {
	store Store
}

// NewEngine builds the ledger engine. A nil store yields ErrNotConfigured on
// every Apply, so callers can construct the API before storage is reachable.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply validates the input, then hands the movement's business rule to the
// store as a pure mutation. No stock check happens outside the transaction:
// the current quantity is always the one re-read inside it.
func (e *Engine) Apply(ctx context.Context, input MovementInput) (Result, error) {
	if e == nil || e.store == nil {
		return Result{}, ErrNotConfigured
	}
	if err := validate(input); err != nil {
		return Result{}, err
	}

	item, movement, err := e.store.Apply(ctx, input.ItemID, mutationFor(input))
	if err != nil {
		return Result{}, err
	}
	return Result{Item: item, Movement: movement}, nil
}

func validate(input MovementInput) error {
	if input.ItemID == "" {
		return fmt.Errorf("%w: item id required", ErrValidation)
	}
	switch input.Kind {
	case MovementConsumption:
		if input.Quantity.IsZero() {
			return fmt.Errorf("%w: consumption quantity must be non-zero", ErrValidation)
		}
	case MovementPurchase:
		if !input.Quantity.IsPositive() {
			return fmt.Errorf("%w: purchase quantity must be positive", ErrValidation)
		}
		if input.TotalAmount.IsNegative() {
			return fmt.Errorf("%w: purchase total must not be negative", ErrValidation)
		}
	case MovementReturn:
		if !input.Quantity.IsPositive() {
			return fmt.Errorf("%w: return quantity must be positive", ErrValidation)
		}
		if input.Reason == "" {
			return fmt.Errorf("%w: return reason required", ErrValidation)
		}
	case MovementAdjustment:
		if !input.Quantity.IsPositive() {
			return fmt.Errorf("%w: adjustment quantity must be positive", ErrValidation)
		}
		if input.Direction != DirectionIncrease && input.Direction != DirectionDecrease {
			return fmt.Errorf("%w: adjustment direction must be increase or decrease", ErrValidation)
		}
		if input.Reason == "" {
			return fmt.Errorf("%w: adjustment reason required", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown movement kind %q", ErrValidation, input.Kind)
	}
	return nil
}

// mutationFor encodes the per-kind delta and stock-floor rules of the ledger.
func mutationFor(input MovementInput) Mutation {
	return func(item Item) (Item, Movement, error) {
		movement := Movement{
			Kind:     input.Kind,
			ItemID:   item.ID,
			Quantity: input.Quantity,
		}

		newStock := item.StockQty
		switch input.Kind {
		case MovementConsumption:
			// Positive consumes, negative undoes. Only consuming is floor-checked.
			newStock = item.StockQty.Sub(input.Quantity)
			if input.Quantity.IsPositive() && newStock.IsNegative() {
				return Item{}, Movement{}, ErrInsufficientStock
			}
		case MovementPurchase:
			newStock = item.StockQty.Add(input.Quantity)
			movement.VendorID = item.VendorID
			movement.TotalAmount = input.TotalAmount
		case MovementReturn:
			newStock = item.StockQty.Sub(input.Quantity)
			if newStock.IsNegative() {
				return Item{}, Movement{}, ErrInsufficientStock
			}
			movement.Reason = input.Reason
		case MovementAdjustment:
			delta := input.Quantity
			if input.Direction == DirectionDecrease {
				delta = delta.Neg()
			}
			newStock = item.StockQty.Add(delta)
			if newStock.IsNegative() {
				return Item{}, Movement{}, ErrInsufficientStock
			}
			movement.Direction = input.Direction
			movement.Reason = input.Reason
		}

		item.StockQty = newStock
		return item, movement, nil
	}
}
