package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes the journal ledger over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the ledger HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers journal entry endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/post", h.handlePost)
	r.Post("/{id}/reverse", h.handleReverse)
	r.Post("/{id}/void", h.handleVoid)
}

type lineResponse struct {
	LineNo      int    `json:"line_no"`
	AccountID   int64  `json:"account_id"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

type entryResponse struct {
	ID           int64          `json:"id"`
	Number       string         `json:"number"`
	Date         string         `json:"date"`
	Description  string         `json:"description,omitempty"`
	Reference    string         `json:"reference,omitempty"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	TotalDebit   string         `json:"total_debit"`
	TotalCredit  string         `json:"total_credit"`
	SourceModule string         `json:"source_module,omitempty"`
	IsReversing  bool           `json:"is_reversing,omitempty"`
	ReversedID   *int64         `json:"reversed_id,omitempty"`
	PostedAt     *time.Time     `json:"posted_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Lines        []lineResponse `json:"lines,omitempty"`
}

func toEntryResponse(e Entry) entryResponse {
	out := entryResponse{
		ID:           e.ID,
		Number:       e.Number,
		Date:         e.Date.Format("2006-01-02"),
		Description:  e.Description,
		Reference:    e.Reference,
		Type:         string(e.Type),
		Status:       string(e.Status),
		TotalDebit:   e.TotalDebit.String(),
		TotalCredit:  e.TotalCredit.String(),
		SourceModule: e.SourceModule,
		IsReversing:  e.IsReversing,
		ReversedID:   e.ReversedID,
		PostedAt:     e.PostedAt,
		CreatedAt:    e.CreatedAt,
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, lineResponse{
			LineNo:      line.LineNo,
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit.String(),
			Credit:      line.Credit.String(),
		})
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list entries", err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

type lineRequest struct {
	AccountID   int64  `json:"account_id"`
	Description string `json:"description"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

type createEntryRequest struct {
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Reference   string        `json:"reference"`
	Type        string        `json:"type"`
	Lines       []lineRequest `json:"lines"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
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
		if errors.Is(err, shared.ErrUnbalanced) {
			h.respondError(w, "create entry", err)
			return
		}
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	entry, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (req createEntryRequest) toInput(actorID int64) (CreateInput, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return CreateInput{}, err
	}
	entryType := EntryTypeStandard
	if req.Type != "" {
		entryType = EntryType(req.Type)
	}
	in := CreateInput{
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
		Type:        entryType,
		ActorID:     actorID,
	}
	for _, line := range req.Lines {
		debit, err := parseAmount(line.Debit)
		if err != nil {
			return CreateInput{}, err
		}
		credit, err := parseAmount(line.Credit)
		if err != nil {
			return CreateInput{}, err
		}
		in.Lines = append(in.Lines, LineInput{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       debit,
			Credit:      credit,
		})
	}
	return in, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	entry, err := h.service.Post(r.Context(), id, httpx.ActorID(r))
	if err != nil {
		h.respondError(w, "post entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req reasonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	entry, err := h.service.Reverse(r.Context(), ReverseInput{EntryID: id, ActorID: httpx.ActorID(r), Reason: req.Reason})
	if err != nil {
		h.respondError(w, "reverse entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req reasonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	entry, err := h.service.Void(r.Context(), VoidInput{EntryID: id, ActorID: httpx.ActorID(r), Reason: req.Reason})
	if err != nil {
		h.respondError(w, "void entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
