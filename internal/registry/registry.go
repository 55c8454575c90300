// Package registry holds the latest known snapshot of every persisted
// collection. A refresh replaces the snapshot wholesale; readers always see
// either the previous complete snapshot or the new one, never a mix.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stockroom-hq/stockroom/internal/catalog"
	"github.com/stockroom-hq/stockroom/internal/ledger"
)

// Snapshot is an immutable projection of all collections. Slices are never
// mutated after the snapshot is published.
type Snapshot struct {
	Categories   []catalog.Category
	Units        []catalog.Unit
	Vendors      []catalog.Vendor
	Items        []ledger.Item
	Purchases    []ledger.Movement
	Consumptions []ledger.Movement
	Returns      []ledger.Movement
	Adjustments  []ledger.Movement
	TakenAt      time.Time
}

// Item returns the item with the given id, or nil.
func (s *Snapshot) Item(id string) *ledger.Item {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// VendorName resolves a vendor reference. Dangling references degrade to
// "Unknown" on purpose; referential integrity is not enforced anywhere.
func (s *Snapshot) VendorName(id string) string {
	for _, v := range s.Vendors {
		if v.ID == id {
			return v.Name
		}
	}
	return "Unknown"
}

// UnitLabel resolves a unit reference to its display name, or "".
func (s *Snapshot) UnitLabel(id string) string {
	for _, u := range s.Units {
		if u.ID == id {
			return u.DisplayName
		}
	}
	return ""
}

// CategoryName resolves a category reference, or "Uncategorized".
func (s *Snapshot) CategoryName(id string) string {
	for _, c := range s.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return "Uncategorized"
}

// ReaderPort fetches whole collections. The registry is the only caller of
// these; every other reader works from its snapshots.
type ReaderPort interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListUnits(ctx context.Context) ([]catalog.Unit, error)
	ListVendors(ctx context.Context) ([]catalog.Vendor, error)
	ListItems(ctx context.Context) ([]ledger.Item, error)
	ListPurchases(ctx context.Context) ([]ledger.Movement, error)
	ListConsumptions(ctx context.Context) ([]ledger.Movement, error)
	ListReturns(ctx context.Context) ([]ledger.Movement, error)
	ListAdjustments(ctx context.Context) ([]ledger.Movement, error)
}

// Registry owns the current snapshot.
type Registry struct {
	repo      ReaderPort
	logger    *slog.Logger
	onFailure func()
	current   atomic.Pointer[Snapshot]
}

// NewRegistry builds a Registry seeded with an empty snapshot. onFailure
// (optional) is called when a refresh is abandoned.
func NewRegistry(repo ReaderPort, logger *slog.Logger, onFailure func()) *Registry {
	r := &Registry{repo: repo, logger: logger, onFailure: onFailure}
	r.current.Store(&Snapshot{})
	return r
}

// Snapshot returns the latest complete snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Refresh fetches all collections concurrently and swaps the snapshot in one
// step. If any fetch fails the whole refresh is abandoned and the previous
// snapshot stays in place.
func (r *Registry) Refresh(ctx context.Context) (*Snapshot, error) {
	next := &Snapshot{TakenAt: time.Now().UTC()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { next.Categories, err = r.repo.ListCategories(ctx); return })
	g.Go(func() (err error) { next.Units, err = r.repo.ListUnits(ctx); return })
	g.Go(func() (err error) { next.Vendors, err = r.repo.ListVendors(ctx); return })
	g.Go(func() (err error) { next.Items, err = r.repo.ListItems(ctx); return })
	g.Go(func() (err error) { next.Purchases, err = r.repo.ListPurchases(ctx); return })
	g.Go(func() (err error) { next.Consumptions, err = r.repo.ListConsumptions(ctx); return })
	g.Go(func() (err error) { next.Returns, err = r.repo.ListReturns(ctx); return })
	g.Go(func() (err error) { next.Adjustments, err = r.repo.ListAdjustments(ctx); return })

	if err := g.Wait(); err != nil {
		if r.onFailure != nil {
			r.onFailure()
		}
		if r.logger != nil {
			r.logger.Warn("registry refresh abandoned, keeping previous snapshot", slog.Any("error", err))
		}
		return r.Snapshot(), fmt.Errorf("registry: refresh: %w", err)
	}

	r.current.Store(next)
	return next, nil
}

// Categories implements catalog.SnapshotSource.
func (r *Registry) Categories() []catalog.Category { return r.Snapshot().Categories }

// Units implements catalog.SnapshotSource.
func (r *Registry) Units() []catalog.Unit { return r.Snapshot().Units }

// Vendors implements catalog.SnapshotSource.
func (r *Registry) Vendors() []catalog.Vendor { return r.Snapshot().Vendors }

// Items implements catalog.SnapshotSource.
func (r *Registry) Items() []ledger.Item { return r.Snapshot().Items }
