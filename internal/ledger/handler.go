package ledger

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-hq/stockroom/internal/observability"
	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for the ledger module. The afterCommit hooks
// let the API attach registry refresh and dashboard-cache invalidation
// without the engine knowing about read-side concerns.
type Handler struct {
	logger      *slog.Logger
	engine      *Engine
	validator   *validator.Validate
	idempotency *shared.IdempotencyStore
	metrics     *observability.Metrics
	afterCommit []func(*http.Request)
}

// NewHandler constructs the ledger handler. afterCommit hooks run on the
// request context once a movement has committed.
func NewHandler(logger *slog.Logger, engine *Engine, idem *shared.IdempotencyStore, metrics *observability.Metrics, afterCommit ...func(*http.Request)) *Handler {
	return &Handler{
		logger:      logger,
		engine:      engine,
		validator:   validator.New(),
		idempotency: idem,
		metrics:     metrics,
		afterCommit: afterCommit,
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchases", h.handlePurchase)
	r.Post("/consumptions", h.handleConsumption)
	r.Post("/returns", h.handleReturn)
	r.Post("/adjustments", h.handleAdjustment)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, MovementInput{
		ItemID:      req.ItemID,
		Kind:        MovementPurchase,
		Quantity:    req.Quantity,
		TotalAmount: req.TotalAmount,
	})
}

func (h *Handler) handleConsumption(w http.ResponseWriter, r *http.Request) {
	var req ConsumptionRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, MovementInput{
		ItemID:   req.ItemID,
		Kind:     MovementConsumption,
		Quantity: req.Quantity,
	})
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req ReturnRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, MovementInput{
		ItemID:   req.ItemID,
		Kind:     MovementReturn,
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, MovementInput{
		ItemID:    req.ItemID,
		Kind:      MovementAdjustment,
		Quantity:  req.Quantity,
		Direction: AdjustmentDirection(req.Direction),
		Reason:    req.Reason,
	})
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

// idempotencyHeader guards against duplicate submission of the same logical
// transaction; the front end sends one key per user action.
const idempotencyHeader = "Idempotency-Key"

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, input MovementInput) {
	ctx := r.Context()

	key := r.Header.Get(idempotencyHeader)
	reserved := false
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.Reserve(ctx, key, "ledger"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate", "this movement was already submitted")
				return
			}
			h.logger.Error("idempotency reserve", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "")
			return
		}
		reserved = true
	}

	result, err := h.engine.Apply(ctx, input)
	if err != nil {
		if reserved {
			_ = h.idempotency.Release(ctx, key)
		}
		h.respondErr(w, r, input, err)
		return
	}

	h.metrics.ObserveMovement(string(input.Kind), "committed")
	h.logger.Info("movement committed",
		slog.String("kind", string(input.Kind)),
		slog.String("item_id", result.Item.ID),
		slog.String("movement_id", result.Movement.ID),
		slog.String("new_stock", result.Item.StockQty.String()))

	for _, hook := range h.afterCommit {
		hook(r)
	}

	httpx.JSON(w, http.StatusCreated, MovementResponse{
		MovementID:  result.Movement.ID,
		Kind:        result.Movement.Kind,
		ItemID:      result.Item.ID,
		NewStockQty: result.Item.StockQty,
		CreatedAt:   result.Movement.CreatedAt,
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, input MovementInput, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		h.metrics.ObserveMovement(string(input.Kind), "rejected")
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrItemNotFound):
		h.metrics.ObserveMovement(string(input.Kind), "rejected")
		httpx.Problem(w, http.StatusNotFound, "Item Not Found", "the item no longer exists")
	case errors.Is(err, ErrInsufficientStock):
		h.metrics.ObserveMovement(string(input.Kind), "rejected")
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", "the movement would drive stock below zero")
	case errors.Is(err, ErrNotConfigured):
		h.metrics.ObserveMovement(string(input.Kind), "failed")
		httpx.Problem(w, http.StatusServiceUnavailable, "Store Not Configured", "the backing store is unreachable")
	case errors.Is(err, ErrTransactionAborted):
		h.metrics.ObserveMovement(string(input.Kind), "failed")
		h.logger.Error("movement aborted", slog.String("kind", string(input.Kind)), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Transaction Aborted", "the movement could not be committed, please retry")
	default:
		h.metrics.ObserveMovement(string(input.Kind), "failed")
		h.logger.Error("movement failed", slog.String("kind", string(input.Kind)), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
