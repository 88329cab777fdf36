package reporting

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes the financial reports over HTTP. Reports are read-only;
// the period defaults keep ad-hoc queries cheap.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler constructs the reporting HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.handleTrialBalance)
	r.Get("/balance-sheet", h.handleBalanceSheet)
	r.Get("/income-statement", h.handleIncomeStatement)
	r.Get("/cash-flow", h.handleCashFlow)
	r.Get("/accounts/{id}/statement", h.handleAccountStatement)
	r.Get("/aging/receivables", h.handleReceivablesAging)
	r.Get("/aging/payables", h.handlePayablesAging)
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := httpx.QueryDate(r, "as_of", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
		return
	}
	report, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.respondError(w, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := httpx.QueryDate(r, "as_of", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), asOf)
	if err != nil {
		h.respondError(w, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// period parses a from/to window; the default is the current month to date.
func (h *Handler) period(r *http.Request) (time.Time, time.Time, error) {
	now := h.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	from, err := httpx.QueryDate(r, "from", monthStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := httpx.QueryDate(r, "to", now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (h *Handler) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.period(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "from/to must be YYYY-MM-DD")
		return
	}
	report, err := h.service.IncomeStatement(r.Context(), from, to)
	if err != nil {
		h.respondError(w, "income statement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.period(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "from/to must be YYYY-MM-DD")
		return
	}
	report, err := h.service.CashFlow(r.Context(), from, to)
	if err != nil {
		h.respondError(w, "cash flow", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleAccountStatement(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	from, to, err := h.period(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "from/to must be YYYY-MM-DD")
		return
	}
	report, err := h.service.AccountStatement(r.Context(), accountID, from, to)
	if err != nil {
		h.respondError(w, "account statement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleReceivablesAging(w http.ResponseWriter, r *http.Request) {
	asOf, err := httpx.QueryDate(r, "as_of", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
		return
	}
	report, err := h.service.ReceivablesAging(r.Context(), asOf)
	if err != nil {
		h.respondError(w, "receivables aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handlePayablesAging(w http.ResponseWriter, r *http.Request) {
	asOf, err := httpx.QueryDate(r, "as_of", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
		return
	}
	report, err := h.service.PayablesAging(r.Context(), asOf)
	if err != nil {
		h.respondError(w, "payables aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
