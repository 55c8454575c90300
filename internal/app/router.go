package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/catalog"
	"github.com/stockroom-hq/stockroom/internal/insights"
	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/observability"
	"github.com/stockroom-hq/stockroom/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	CatalogHandler  *catalog.Handler
	LedgerHandler   *ledger.Handler
	InsightsHandler *insights.Handler
	JobsHandler     *jobs.Handler
	Pool            *pgxpool.Pool
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Stockroom defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Get("/metrics", params.Metrics.Handler().ServeHTTP)
	}

	if params.CatalogHandler != nil {
		r.Route("/catalog", params.CatalogHandler.MountRoutes)
	}
	if params.LedgerHandler != nil {
		r.Route("/ledger", params.LedgerHandler.MountRoutes)
	}
	if params.InsightsHandler != nil {
		params.InsightsHandler.MountRoutes(r)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
