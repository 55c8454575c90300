package insights

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/registry"
)

type staticSnapshots struct {
	snap *registry.Snapshot
}

func (s *staticSnapshots) Snapshot() *registry.Snapshot { return s.snap }

func newTestHandler(t *testing.T, snap *registry.Snapshot) (*Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	logger := slog.New(slog.DiscardHandler)
	return NewHandler(logger, &staticSnapshots{snap: snap}, cache, 14), mr
}

func serveDashboard(t *testing.T, h *Handler) Dashboard {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var dash Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	return dash
}

func TestDashboardServedAndCached(t *testing.T) {
	snap := &registry.Snapshot{
		Items: []ledger.Item{
			{ID: "i1", Name: "Rice", StockQty: decimal.NewFromInt(4), ReorderLevel: decimal.NewFromInt(5)},
		},
		Purchases: []ledger.Movement{
			{Kind: ledger.MovementPurchase, ItemID: "i1", Quantity: decimal.NewFromInt(20), TotalAmount: decimal.NewFromInt(100), CreatedAt: time.Now()},
		},
	}
	h, mr := newTestHandler(t, snap)

	dash := serveDashboard(t, h)
	require.Equal(t, 1, dash.TotalItems)
	require.Len(t, dash.LowStock, 1)
	require.Equal(t, "$100.00", dash.TotalSpendUSD)

	// The build landed in redis under the versioned key.
	require.True(t, mr.Exists("insights:dashboard:1"))
}

func TestDashboardServesStaleUntilInvalidated(t *testing.T) {
	snap := &registry.Snapshot{
		Items: []ledger.Item{{ID: "i1", Name: "Rice", StockQty: decimal.NewFromInt(10)}},
	}
	h, _ := newTestHandler(t, snap)

	first := serveDashboard(t, h)
	require.Empty(t, first.OutOfStock)

	// The snapshot moves on but the cached view keeps serving.
	snap.Items[0].StockQty = decimal.NewFromInt(0)
	cached := serveDashboard(t, h)
	require.Empty(t, cached.OutOfStock)

	h.Invalidate(context.Background())
	fresh := serveDashboard(t, h)
	require.Len(t, fresh.OutOfStock, 1)
}

func TestDashboardBuildsWhenRedisDown(t *testing.T) {
	snap := &registry.Snapshot{
		Items: []ledger.Item{{ID: "i1", Name: "Rice", StockQty: decimal.NewFromInt(10)}},
	}
	h, mr := newTestHandler(t, snap)
	mr.Close()

	dash := serveDashboard(t, h)
	require.Equal(t, 1, dash.TotalItems)
}

func TestActivityEndpointServesFeed(t *testing.T) {
	snap := &registry.Snapshot{
		Items: []ledger.Item{{ID: "i1", Name: "Rice"}},
		Consumptions: []ledger.Movement{
			{Kind: ledger.MovementConsumption, ItemID: "i1", Quantity: decimal.NewFromInt(3), CreatedAt: time.Now()},
		},
	}
	h, _ := newTestHandler(t, snap)

	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activity", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RecentActivity []Activity `json:"recent_activity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.RecentActivity, 1)
	require.Equal(t, "Rice · Consumed 3", body.RecentActivity[0].Label)
}
