package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/assets"
	"github.com/meridian-erp/meridian-erp/internal/invoicing"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/reporting"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AccountsHandler  *accounts.Handler
	LedgerHandler    *ledger.Handler
	InvoicingHandler *invoicing.Handler
	PaymentsHandler  *payments.Handler
	ReportingHandler *reporting.Handler
	AssetsHandler    *assets.Handler
	JobsHandler      *jobs.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
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
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Warn("readiness ping failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AccountsHandler != nil {
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
	}
	if params.LedgerHandler != nil {
		r.Route("/journal-entries", params.LedgerHandler.MountRoutes)
	}
	if params.InvoicingHandler != nil {
		r.Route("/invoices", params.InvoicingHandler.MountRoutes)
	}
	if params.PaymentsHandler != nil {
		r.Route("/payments", params.PaymentsHandler.MountRoutes)
	}
	if params.ReportingHandler != nil {
		r.Route("/reports", params.ReportingHandler.MountRoutes)
	}
	if params.AssetsHandler != nil {
		r.Route("/assets", params.AssetsHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
