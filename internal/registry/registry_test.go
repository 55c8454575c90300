package registry

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/catalog"
	"github.com/stockroom-hq/stockroom/internal/ledger"
)

type stubReader struct {
	categories []catalog.Category
	units      []catalog.Unit
	vendors    []catalog.Vendor
	items      []ledger.Item
	failItems  error
}

func (s *stubReader) ListCategories(context.Context) ([]catalog.Category, error) {
	return s.categories, nil
}
func (s *stubReader) ListUnits(context.Context) ([]catalog.Unit, error)     { return s.units, nil }
func (s *stubReader) ListVendors(context.Context) ([]catalog.Vendor, error) { return s.vendors, nil }
func (s *stubReader) ListItems(context.Context) ([]ledger.Item, error) {
	if s.failItems != nil {
		return nil, s.failItems
	}
	return s.items, nil
}
func (s *stubReader) ListPurchases(context.Context) ([]ledger.Movement, error)    { return nil, nil }
func (s *stubReader) ListConsumptions(context.Context) ([]ledger.Movement, error) { return nil, nil }
func (s *stubReader) ListReturns(context.Context) ([]ledger.Movement, error)      { return nil, nil }
func (s *stubReader) ListAdjustments(context.Context) ([]ledger.Movement, error)  { return nil, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRefreshSwapsSnapshotWholesale(t *testing.T) {
	reader := &stubReader{
		vendors: []catalog.Vendor{{ID: "v1", Name: "Acme Supply"}},
		items:   []ledger.Item{{ID: "i1", Name: "Rice", StockQty: decimal.NewFromInt(10)}},
	}
	reg := NewRegistry(reader, discardLogger(), nil)

	require.Empty(t, reg.Snapshot().Items)

	snap, err := reg.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.Same(t, snap, reg.Snapshot())
	require.False(t, snap.TakenAt.IsZero())
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	reader := &stubReader{
		items: []ledger.Item{{ID: "i1", Name: "Rice"}},
	}
	failures := 0
	reg := NewRegistry(reader, discardLogger(), func() { failures++ })

	first, err := reg.Refresh(context.Background())
	require.NoError(t, err)

	reader.failItems = errors.New("connection reset")
	reader.items = nil

	got, err := reg.Refresh(context.Background())
	require.Error(t, err)
	require.Same(t, first, got)
	require.Same(t, first, reg.Snapshot())
	require.Equal(t, 1, failures)
}

func TestSnapshotLookupFallbacks(t *testing.T) {
	snap := &Snapshot{
		Categories: []catalog.Category{{ID: "c1", Name: "Grains"}},
		Units:      []catalog.Unit{{ID: "u1", DisplayName: "Kilogram"}},
		Vendors:    []catalog.Vendor{{ID: "v1", Name: "Acme Supply"}},
	}

	require.Equal(t, "Grains", snap.CategoryName("c1"))
	require.Equal(t, "Uncategorized", snap.CategoryName("missing"))
	require.Equal(t, "Kilogram", snap.UnitLabel("u1"))
	require.Equal(t, "", snap.UnitLabel("missing"))
	require.Equal(t, "Acme Supply", snap.VendorName("v1"))
	require.Equal(t, "Unknown", snap.VendorName("missing"))
	require.Nil(t, snap.Item("missing"))
}

func TestRegistryServesCatalogReads(t *testing.T) {
	reader := &stubReader{
		categories: []catalog.Category{{ID: "c1", Name: "Grains"}},
		units:      []catalog.Unit{{ID: "u1", DisplayName: "Kilogram"}},
		vendors:    []catalog.Vendor{{ID: "v1", Name: "Acme Supply"}},
		items:      []ledger.Item{{ID: "i1", Name: "Rice"}},
	}
	reg := NewRegistry(reader, discardLogger(), nil)
	_, err := reg.Refresh(context.Background())
	require.NoError(t, err)

	var src catalog.SnapshotSource = reg
	require.Len(t, src.Categories(), 1)
	require.Len(t, src.Units(), 1)
	require.Len(t, src.Vendors(), 1)
	require.Len(t, src.Items(), 1)
}
