package payments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes the payment subledger over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the payments HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payment endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/confirm", h.handleConfirm)
	r.Post("/{id}/void", h.handleVoid)
	r.Post("/{id}/refund", h.handleRefund)
}

type paymentResponse struct {
	ID             int64      `json:"id"`
	Number         string     `json:"number"`
	InvoiceID      *int64     `json:"invoice_id,omitempty"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	Method         string     `json:"method"`
	Status         string     `json:"status"`
	JournalEntryID *int64     `json:"journal_entry_id,omitempty"`
	RefundedAmount string     `json:"refunded_amount"`
	IsRefund       bool       `json:"is_refund,omitempty"`
	OriginalID     *int64     `json:"original_id,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toPaymentResponse(p Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		Number:         p.Number,
		InvoiceID:      p.InvoiceID,
		Amount:         p.Amount.String(),
		Currency:       p.Currency,
		Method:         p.Method,
		Status:         string(p.Status),
		JournalEntryID: p.JournalEntryID,
		RefundedAmount: p.RefundedAmount.String(),
		IsRefund:       p.IsRefund,
		OriginalID:     p.OriginalID,
		ConfirmedAt:    p.ConfirmedAt,
		CreatedAt:      p.CreatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list payments", err)
		return
	}
	out := make([]paymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPaymentResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPaymentResponse(payment))
}

type createPaymentRequest struct {
	InvoiceID *int64 `json:"invoice_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "amount is not a decimal")
		return
	}
	in := CreateInput{
		InvoiceID: req.InvoiceID,
		Amount:    amount,
		Currency:  req.Currency,
		Method:    req.Method,
		ActorID:   httpx.ActorID(r),
	}
	if err := in.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	payment, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	payment, err := h.service.Confirm(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.respondError(w, "confirm payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPaymentResponse(payment))
}

type voidPaymentRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req voidPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	payment, err := h.service.Void(r.Context(), id, httpx.ActorID(r), req.Reason)
	if err != nil {
		h.respondError(w, "void payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPaymentResponse(payment))
}

type refundRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req refundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "amount is not a decimal")
		return
	}
	if !amount.IsPositive() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "refund amount must be positive")
		return
	}
	payment, err := h.service.Refund(r.Context(), id, amount, req.Reason, httpx.ActorID(r))
	if err != nil {
		h.respondError(w, "refund payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
