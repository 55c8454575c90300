package ledger

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memoryStore emulates the optimistic-transaction contract: reads are
// versioned, commits fail when another commit happened in between, and the
// mutation is re-run against fresh state until it sticks or the ceiling hits.
type memoryStore struct {
	mu        sync.Mutex
	items     map[string]Item
	versions  map[string]int
	movements []Movement
	nextID    int
	attempts  int

	// beforeCommit, when set, runs between the read and the commit of every
	// attempt. Tests use it to inject a concurrent writer.
	beforeCommit func()
}

func newMemoryStore(items ...Item) *memoryStore {
	s := &memoryStore{
		items:    make(map[string]Item),
		versions: make(map[string]int),
		attempts: 5,
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *memoryStore) Apply(ctx context.Context, itemID string, fn Mutation) (Item, Movement, error) {
	for attempt := 1; ; attempt++ {
		s.mu.Lock()
		current, ok := s.items[itemID]
		version := s.versions[itemID]
		s.mu.Unlock()
		if !ok {
			return Item{}, Movement{}, ErrItemNotFound
		}

		next, movement, err := fn(current)
		if err != nil {
			return Item{}, Movement{}, err
		}

		if s.beforeCommit != nil {
			s.beforeCommit()
		}

		s.mu.Lock()
		if s.versions[itemID] != version {
			s.mu.Unlock()
			if attempt >= s.attempts {
				return Item{}, Movement{}, ErrTransactionAborted
			}
			continue
		}
		s.nextID++
		movement.ID = itoa(s.nextID)
		movement.CreatedAt = time.Now().UTC()
		s.items[itemID] = next
		s.versions[itemID] = version + 1
		s.movements = append(s.movements, movement)
		s.mu.Unlock()
		return next, movement, nil
	}
}

func (s *memoryStore) item(id string) Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

func (s *memoryStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func qty(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testItem(id string, stock string) Item {
	return Item{
		ID:           id,
		Name:         "Rice 5kg",
		VendorID:     "vendor-1",
		OpeningQty:   qty(stock),
		ReorderLevel: qty("5"),
		StockQty:     qty(stock),
	}
}

func TestConsumptionReducesStock(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "10"))
	engine := NewEngine(store)

	res, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementConsumption,
		Quantity: qty("6"),
	})
	require.NoError(t, err)
	require.True(t, res.Item.StockQty.Equal(qty("4")), "stock = %s", res.Item.StockQty)
	require.Equal(t, MovementConsumption, res.Movement.Kind)
	require.True(t, res.Movement.Quantity.Equal(qty("6")))
	require.NotEmpty(t, res.Movement.ID)
	require.False(t, res.Movement.CreatedAt.IsZero())
}

func TestConsumptionInsufficientStockLeavesNoTrace(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "3"))
	engine := NewEngine(store)

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementConsumption,
		Quantity: qty("5"),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.True(t, store.item("item-1").StockQty.Equal(qty("3")))
	require.Zero(t, store.movementCount(), "failed movement must not be recorded")
}

func TestConsumptionUndoSkipsFloorCheck(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "0"))
	engine := NewEngine(store)

	// Undo is a negative consumption; it increases stock and carries no floor.
	res, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementConsumption,
		Quantity: qty("-2"),
	})
	require.NoError(t, err)
	require.True(t, res.Item.StockQty.Equal(qty("2")))
	require.True(t, res.Movement.Quantity.Equal(qty("-2")))
}

func TestPurchaseIncreasesStockAndSnapshotsVendor(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "0"))
	engine := NewEngine(store)

	res, err := engine.Apply(context.Background(), MovementInput{
		ItemID:      "item-1",
		Kind:        MovementPurchase,
		Quantity:    qty("20"),
		TotalAmount: qty("100"),
	})
	require.NoError(t, err)
	require.True(t, res.Item.StockQty.Equal(qty("20")))
	require.Equal(t, "vendor-1", res.Movement.VendorID)
	require.True(t, res.Movement.TotalAmount.Equal(qty("100")))
}

func TestPurchaseRequiresPositiveQuantity(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "0"))
	engine := NewEngine(store)

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementPurchase,
		Quantity: qty("0"),
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Zero(t, store.movementCount())
}

func TestReturnChecksFloor(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "2"))
	engine := NewEngine(store)

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementReturn,
		Quantity: qty("3"),
		Reason:   "damaged batch",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	res, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementReturn,
		Quantity: qty("2"),
		Reason:   "damaged batch",
	})
	require.NoError(t, err)
	require.True(t, res.Item.StockQty.IsZero())
	require.Equal(t, "damaged batch", res.Movement.Reason)
}

func TestAdjustmentDecreaseBelowZeroFails(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "3"))
	engine := NewEngine(store)

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:    "item-1",
		Kind:      MovementAdjustment,
		Quantity:  qty("4"),
		Direction: DirectionDecrease,
		Reason:    "stocktake",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.True(t, store.item("item-1").StockQty.Equal(qty("3")))
	require.Zero(t, store.movementCount())
}

func TestAdjustmentIncrease(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "3"))
	engine := NewEngine(store)

	res, err := engine.Apply(context.Background(), MovementInput{
		ItemID:    "item-1",
		Kind:      MovementAdjustment,
		Quantity:  qty("4"),
		Direction: DirectionIncrease,
		Reason:    "found in back room",
	})
	require.NoError(t, err)
	require.True(t, res.Item.StockQty.Equal(qty("7")))
	require.Equal(t, DirectionIncrease, res.Movement.Direction)
}

func TestAdjustmentRequiresDirectionAndReason(t *testing.T) {
	engine := NewEngine(newMemoryStore(testItem("item-1", "3")))

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementAdjustment,
		Quantity: qty("1"),
		Reason:   "stocktake",
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = engine.Apply(context.Background(), MovementInput{
		ItemID:    "item-1",
		Kind:      MovementAdjustment,
		Quantity:  qty("1"),
		Direction: DirectionIncrease,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestItemNotFound(t *testing.T) {
	engine := NewEngine(newMemoryStore())

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "gone",
		Kind:     MovementConsumption,
		Quantity: qty("1"),
	})
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestNotConfigured(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementConsumption,
		Quantity: qty("1"),
	})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestConcurrentConsumptionsBothCommit(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "10"))
	engine := NewEngine(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, amount := range []string{"3", "4"} {
		wg.Add(1)
		go func(slot int, amount string) {
			defer wg.Done()
			_, errs[slot] = engine.Apply(context.Background(), MovementInput{
				ItemID:   "item-1",
				Kind:     MovementConsumption,
				Quantity: qty(amount),
			})
		}(i, amount)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.True(t, store.item("item-1").StockQty.Equal(qty("3")), "no lost update: 10 - 3 - 4 = 3")
	require.Equal(t, 2, store.movementCount())
}

func TestConflictRetriesAgainstFreshState(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "10"))
	engine := NewEngine(store)

	// A concurrent client consumes 5 between our read and commit, exactly once.
	fired := false
	store.beforeCommit = func() {
		if fired {
			return
		}
		fired = true
		store.mu.Lock()
		item := store.items["item-1"]
		item.StockQty = item.StockQty.Sub(qty("5"))
		store.items["item-1"] = item
		store.versions["item-1"]++
		store.mu.Unlock()
	}

	res, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementConsumption,
		Quantity: qty("4"),
	})
	require.NoError(t, err)
	require.True(t, res.Item.StockQty.Equal(qty("1")), "retried against the re-read stock of 5")
}

func TestRetryCeilingSurfacesTransactionAborted(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "100"))
	store.attempts = 3
	engine := NewEngine(store)

	// Every attempt loses the race.
	store.beforeCommit = func() {
		store.mu.Lock()
		store.versions["item-1"]++
		store.mu.Unlock()
	}

	_, err := engine.Apply(context.Background(), MovementInput{
		ItemID:   "item-1",
		Kind:     MovementConsumption,
		Quantity: qty("1"),
	})
	require.ErrorIs(t, err, ErrTransactionAborted)
}

func TestLedgerInvariantHoldsAcrossMixedMovements(t *testing.T) {
	store := newMemoryStore(testItem("item-1", "10"))
	engine := NewEngine(store)
	ctx := context.Background()

	inputs := []MovementInput{
		{ItemID: "item-1", Kind: MovementPurchase, Quantity: qty("5"), TotalAmount: qty("25")},
		{ItemID: "item-1", Kind: MovementConsumption, Quantity: qty("7")},
		{ItemID: "item-1", Kind: MovementConsumption, Quantity: qty("-2")},
		{ItemID: "item-1", Kind: MovementReturn, Quantity: qty("3"), Reason: "over-delivered"},
		{ItemID: "item-1", Kind: MovementAdjustment, Quantity: qty("1"), Direction: DirectionDecrease, Reason: "breakage"},
	}
	for _, input := range inputs {
		_, err := engine.Apply(ctx, input)
		require.NoError(t, err)
	}

	item := store.item("item-1")
	sum := decimal.Zero
	for _, m := range store.movements {
		sum = sum.Add(m.StockDelta())
	}
	require.True(t, item.StockQty.Sub(item.OpeningQty).Equal(sum),
		"stock %s - opening %s must equal signed movement sum %s", item.StockQty, item.OpeningQty, sum)
	require.False(t, item.StockQty.IsNegative())
}
