package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
)

// SnapshotSource serves the read side. List endpoints never hit the store
// directly: they render whatever the registry snapshot currently holds.
type SnapshotSource interface {
	Categories() []Category
	Units() []Unit
	Vendors() []Vendor
	Items() []ledger.Item
}

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	snapshots   SnapshotSource
	validator   *validator.Validate
	afterCommit []func(*http.Request)
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service, snapshots SnapshotSource, afterCommit ...func(*http.Request)) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		snapshots:   snapshots,
		validator:   validator.New(),
		afterCommit: afterCommit,
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/categories", h.createCategory)
	r.Get("/categories", h.listCategories)
	r.Post("/units", h.createUnit)
	r.Get("/units", h.listUnits)
	r.Post("/vendors", h.createVendor)
	r.Get("/vendors", h.listVendors)
	r.Post("/items", h.createItem)
	r.Get("/items", h.listItems)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	category, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create category", err)
		return
	}
	h.committed(r)
	httpx.JSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if !h.decode(w, r, &req) {
		return
	}
	unit, err := h.service.CreateUnit(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create unit", err)
		return
	}
	h.committed(r)
	httpx.JSON(w, http.StatusCreated, toUnitResponse(unit))
}

func (h *Handler) createVendor(w http.ResponseWriter, r *http.Request) {
	var req CreateVendorRequest
	if !h.decode(w, r, &req) {
		return
	}
	vendor, err := h.service.CreateVendor(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create vendor", err)
		return
	}
	h.committed(r)
	httpx.JSON(w, http.StatusCreated, toVendorResponse(vendor))
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create item", err)
		return
	}
	h.committed(r)
	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.snapshots.Categories()
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	units := h.snapshots.Units()
	out := make([]UnitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, toUnitResponse(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listVendors(w http.ResponseWriter, r *http.Request) {
	vendors := h.snapshots.Vendors()
	out := make([]VendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, toVendorResponse(v))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items := h.snapshots.Items()
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body is not valid JSON")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) committed(r *http.Request) {
	for _, hook := range h.afterCommit {
		hook(r)
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, ErrInvalidInput) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error(action+" failed", slog.Any("error", err))
	httpx.Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "")
}

func toCategoryResponse(c Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

func toUnitResponse(u Unit) UnitResponse {
	return UnitResponse{ID: u.ID, DisplayName: u.DisplayName, UnitName: u.UnitName, CreatedAt: u.CreatedAt}
}

func toVendorResponse(v Vendor) VendorResponse {
	return VendorResponse{
		ID:             v.ID,
		Name:           v.Name,
		Address:        v.Address,
		Mobile:         v.Mobile,
		Email:          v.Email,
		OpeningBalance: v.OpeningBalance,
		CreatedAt:      v.CreatedAt,
	}
}

func toItemResponse(item ledger.Item) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		CategoryID:   item.CategoryID,
		UnitID:       item.UnitID,
		VendorID:     item.VendorID,
		HasExpiry:    item.HasExpiry,
		ExpiryDate:   item.ExpiryDate,
		OpeningQty:   item.OpeningQty,
		Price:        item.Price,
		ReorderLevel: item.ReorderLevel,
		StockQty:     item.StockQty,
		CreatedAt:    item.CreatedAt,
	}
}
