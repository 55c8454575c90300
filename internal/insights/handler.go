package insights

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/registry"
)

// SnapshotProvider hands out the registry snapshot the views are built from.
type SnapshotProvider interface {
	Snapshot() *registry.Snapshot
}

// Handler serves the dashboard projection. Rebuilds are collapsed through a
// singleflight group so a burst of requests after an invalidation pays for at
// most one build.
type Handler struct {
	logger     *slog.Logger
	snapshots  SnapshotProvider
	cache      *Cache
	windowDays int
	group      singleflight.Group
}

// NewHandler constructs the insights handler. windowDays bounds the expiry
// alert horizon.
func NewHandler(logger *slog.Logger, snapshots SnapshotProvider, cache *Cache, windowDays int) *Handler {
	return &Handler{
		logger:     logger,
		snapshots:  snapshots,
		cache:      cache,
		windowDays: windowDays,
	}
}

// MountRoutes registers the dashboard endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/activity", h.handleActivity)
}

// Invalidate drops every cached view. Wired as an after-commit hook on the
// mutating handlers.
func (h *Handler) Invalidate(ctx context.Context) {
	if err := h.cache.Bump(ctx); err != nil {
		h.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	key, err := h.cache.BuildKey(r.Context(), "insights", "dashboard")
	if err != nil {
		h.logger.Warn("dashboard cache key unavailable, building uncached", slog.Any("error", err))
		httpx.JSON(w, http.StatusOK, h.build())
		return
	}

	result := h.group.DoChan(key, func() (interface{}, error) {
		var dash Dashboard
		err := h.cache.FetchJSON(r.Context(), key, &dash, func(context.Context) (interface{}, error) {
			return h.build(), nil
		})
		return dash, err
	})
	select {
	case <-r.Context().Done():
		httpx.Problem(w, http.StatusServiceUnavailable, "Dashboard Unavailable", r.Context().Err().Error())
	case res := <-result:
		if res.Err != nil {
			h.logger.Warn("dashboard cache unavailable, serving fresh build", slog.Any("error", res.Err))
			httpx.JSON(w, http.StatusOK, h.build())
			return
		}
		httpx.JSON(w, http.StatusOK, res.Val)
	}
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"recent_activity": RecentActivity(h.snapshots.Snapshot()),
	})
}

func (h *Handler) build() Dashboard {
	return Build(h.snapshots.Snapshot(), time.Now().UTC(), h.windowDays)
}
