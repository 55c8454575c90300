package catalog

import (
	"context"
	"fmt"

	"github.com/stockroom-hq/stockroom/internal/ledger"
)

// RepositoryPort abstracts persistence for the catalog entities. Ids and
// creation timestamps come back assigned by the store.
type RepositoryPort interface {
	InsertCategory(ctx context.Context, c Category) (Category, error)
	InsertUnit(ctx context.Context, u Unit) (Unit, error)
	InsertVendor(ctx context.Context, v Vendor) (Vendor, error)
	InsertItem(ctx context.Context, item ledger.Item) (ledger.Item, error)
}

// Service creates the reference entities and items. Deletion is out of scope:
// entities are only ever added, and dangling references degrade in the
// registry lookups rather than being enforced here.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (Category, error) {
	if req.Name == "" {
		return Category{}, fmt.Errorf("%w: category name required", ErrInvalidInput)
	}
	return s.repo.InsertCategory(ctx, Category{Name: req.Name, Description: req.Description})
}

func (s *Service) CreateUnit(ctx context.Context, req CreateUnitRequest) (Unit, error) {
	if req.DisplayName == "" || req.UnitName == "" {
		return Unit{}, fmt.Errorf("%w: unit display name and unit name required", ErrInvalidInput)
	}
	return s.repo.InsertUnit(ctx, Unit{DisplayName: req.DisplayName, UnitName: req.UnitName})
}

func (s *Service) CreateVendor(ctx context.Context, req CreateVendorRequest) (Vendor, error) {
	if req.Name == "" {
		return Vendor{}, fmt.Errorf("%w: vendor name required", ErrInvalidInput)
	}
	return s.repo.InsertVendor(ctx, Vendor{
		Name:           req.Name,
		Address:        req.Address,
		Mobile:         req.Mobile,
		Email:          req.Email,
		OpeningBalance: req.OpeningBalance,
	})
}

// CreateItem seeds stockQty from the opening quantity; every later stock
// change goes through the ledger engine.
func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (ledger.Item, error) {
	if req.Name == "" {
		return ledger.Item{}, fmt.Errorf("%w: item name required", ErrInvalidInput)
	}
	if req.UnitID == "" || req.VendorID == "" {
		return ledger.Item{}, fmt.Errorf("%w: unit and vendor required", ErrInvalidInput)
	}
	if req.OpeningQty.IsNegative() {
		return ledger.Item{}, fmt.Errorf("%w: opening quantity must not be negative", ErrInvalidInput)
	}
	if req.Price.IsNegative() || req.ReorderLevel.IsNegative() {
		return ledger.Item{}, fmt.Errorf("%w: price and reorder level must not be negative", ErrInvalidInput)
	}

	item := ledger.Item{
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		UnitID:       req.UnitID,
		VendorID:     req.VendorID,
		HasExpiry:    req.HasExpiry,
		OpeningQty:   req.OpeningQty,
		Price:        req.Price,
		ReorderLevel: req.ReorderLevel,
		StockQty:     req.OpeningQty,
	}
	if req.HasExpiry && req.ExpiryDate != nil {
		expiry := req.ExpiryDate.UTC()
		item.ExpiryDate = &expiry
	}
	return s.repo.InsertItem(ctx, item)
}
