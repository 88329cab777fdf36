package accounts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes the chart of accounts over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the accounts HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers chart of accounts endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/tree", h.handleTree)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type accountResponse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Balance   string    `json:"balance"`
	IsActive  bool      `json:"is_active"`
	IsSystem  bool      `json:"is_system"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type nodeResponse struct {
	accountResponse
	Children []nodeResponse `json:"children,omitempty"`
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		ParentID:  a.ParentID,
		Balance:   a.Balance.String(),
		IsActive:  a.IsActive,
		IsSystem:  a.IsSystem,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toNodeResponse(n Node) nodeResponse {
	out := nodeResponse{accountResponse: toAccountResponse(n.Account)}
	for _, child := range n.Children {
		out.Children = append(out.Children, toNodeResponse(child))
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("code"); code != "" {
		account, err := h.service.GetByCode(r.Context(), code)
		if err != nil {
			h.respondError(w, "get account by code", err)
			return
		}
		httpx.JSON(w, http.StatusOK, []accountResponse{toAccountResponse(account)})
		return
	}
	var (
		list []Account
		err  error
	)
	if typ := r.URL.Query().Get("type"); typ != "" {
		list, err = h.service.ListByType(r.Context(), AccountType(typ))
	} else {
		list, err = h.service.List(r.Context())
	}
	if err != nil {
		h.respondError(w, "list accounts", err)
		return
	}
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.respondError(w, "account tree", err)
		return
	}
	out := make([]nodeResponse, 0, len(tree))
	for _, n := range tree {
		out = append(out, toNodeResponse(n))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

type createAccountRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ParentID *int64  `json:"parent_id"`
	Opening  *string `json:"opening_balance"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	in := CreateInput{
		Code:     req.Code,
		Name:     req.Name,
		Type:     AccountType(req.Type),
		ParentID: req.ParentID,
		ActorID:  httpx.ActorID(r),
	}
	if req.Opening != nil {
		opening, err := decimal.NewFromString(*req.Opening)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "opening_balance is not a decimal")
			return
		}
		in.Opening = opening
	}
	if err := in.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	account, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}

type updateAccountRequest struct {
	Name     *string `json:"name"`
	ParentID *int64  `json:"parent_id"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	in := UpdateInput{
		AccountID: id,
		Name:      req.Name,
		ParentID:  req.ParentID,
		IsActive:  req.IsActive,
		ActorID:   httpx.ActorID(r),
	}
	if err := in.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	account, err := h.service.Update(r.Context(), in)
	if err != nil {
		h.respondError(w, "update account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id, httpx.ActorID(r)); err != nil {
		h.respondError(w, "delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
