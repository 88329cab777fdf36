package invoicing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes the invoice subledger over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the invoicing HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoice endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/send", h.handleSend)
	r.Post("/{id}/cancel", h.handleCancel)
}

type itemResponse struct {
	Description  string `json:"description"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	DiscountRate string `json:"discount_rate"`
	TaxRate      string `json:"tax_rate"`
	Total        string `json:"total"`
}

type invoiceResponse struct {
	ID             int64          `json:"id"`
	Number         string         `json:"number"`
	Type           string         `json:"type"`
	Status         string         `json:"status"`
	PartyID        int64          `json:"party_id"`
	IssueDate      string         `json:"issue_date"`
	DueDate        string         `json:"due_date"`
	Subtotal       string         `json:"subtotal"`
	TaxAmount      string         `json:"tax_amount"`
	Total          string         `json:"total"`
	AmountPaid     string         `json:"amount_paid"`
	Balance        string         `json:"balance"`
	JournalEntryID *int64         `json:"journal_entry_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	Items          []itemResponse `json:"items,omitempty"`
}

func toInvoiceResponse(inv Invoice) invoiceResponse {
	out := invoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		Type:           string(inv.Type),
		Status:         string(inv.Status),
		PartyID:        inv.PartyID,
		IssueDate:      inv.IssueDate.Format("2006-01-02"),
		DueDate:        inv.DueDate.Format("2006-01-02"),
		Subtotal:       inv.Subtotal.String(),
		TaxAmount:      inv.TaxAmount.String(),
		Total:          inv.Total.String(),
		AmountPaid:     inv.AmountPaid.String(),
		Balance:        inv.Balance().String(),
		JournalEntryID: inv.JournalEntryID,
		CreatedAt:      inv.CreatedAt,
	}
	for _, item := range inv.Items {
		out.Items = append(out.Items, itemResponse{
			Description:  item.Description,
			Quantity:     item.Quantity.String(),
			UnitPrice:    item.UnitPrice.String(),
			DiscountRate: item.DiscountRate.String(),
			TaxRate:      item.TaxRate.String(),
			Total:        item.Total.String(),
		})
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Type:   InvoiceType(q.Get("type")),
		Status: InvoiceStatus(q.Get("status")),
	}
	if raw := q.Get("party_id"); raw != "" {
		partyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "party_id is not an integer")
			return
		}
		filter.PartyID = partyID
	}
	invoices, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	invoice, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

type itemRequest struct {
	Description  string `json:"description"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	DiscountRate string `json:"discount_rate"`
	TaxRate      string `json:"tax_rate"`
}

type createInvoiceRequest struct {
	Type      string        `json:"type"`
	PartyID   int64         `json:"party_id"`
	IssueDate string        `json:"issue_date"`
	DueDate   string        `json:"due_date"`
	Items     []itemRequest `json:"items"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	in, err := req.toInput(httpx.ActorID(r))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	invoice, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}

func (req createInvoiceRequest) toInput(actorID int64) (CreateInput, error) {
	issueDate, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		return CreateInput{}, err
	}
	in := CreateInput{
		Type:      InvoiceType(req.Type),
		PartyID:   req.PartyID,
		IssueDate: issueDate,
		ActorID:   actorID,
	}
	if req.DueDate != "" {
		dueDate, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return CreateInput{}, err
		}
		in.DueDate = dueDate
	}
	for _, item := range req.Items {
		parsed := ItemInput{Description: item.Description}
		if parsed.Quantity, err = decimal.NewFromString(item.Quantity); err != nil {
			return CreateInput{}, err
		}
		if parsed.UnitPrice, err = decimal.NewFromString(item.UnitPrice); err != nil {
			return CreateInput{}, err
		}
		if parsed.DiscountRate, err = parseRate(item.DiscountRate); err != nil {
			return CreateInput{}, err
		}
		if parsed.TaxRate, err = parseRate(item.TaxRate); err != nil {
			return CreateInput{}, err
		}
		in.Items = append(in.Items, parsed)
	}
	return in, nil
}

func parseRate(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	invoice, err := h.service.Send(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.respondError(w, "send invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	invoice, err := h.service.Cancel(r.Context(), id, httpx.ActorID(r), req.Reason)
	if err != nil {
		h.respondError(w, "cancel invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
