package assets

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes the fixed asset register over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the assets HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers asset endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/depreciate", h.handleDepreciate)
}

type assetResponse struct {
	ID                      int64     `json:"id"`
	Number                  string    `json:"number"`
	Name                    string    `json:"name"`
	Category                string    `json:"category,omitempty"`
	AcquisitionDate         string    `json:"acquisition_date"`
	AcquisitionPrice        string    `json:"acquisition_price"`
	SalvageValue            string    `json:"salvage_value"`
	UsefulLifeMonths        int       `json:"useful_life_months"`
	Method                  string    `json:"method"`
	AccumulatedDepreciation string    `json:"accumulated_depreciation"`
	CurrentValue            string    `json:"current_value"`
	CreatedAt               time.Time `json:"created_at"`
}

func toAssetResponse(a Asset) assetResponse {
	return assetResponse{
		ID:                      a.ID,
		Number:                  a.Number,
		Name:                    a.Name,
		Category:                a.Category,
		AcquisitionDate:         a.AcquisitionDate.Format("2006-01-02"),
		AcquisitionPrice:        a.AcquisitionPrice.String(),
		SalvageValue:            a.SalvageValue.String(),
		UsefulLifeMonths:        a.UsefulLifeMonths,
		Method:                  string(a.Method),
		AccumulatedDepreciation: a.AccumulatedDepreciation.String(),
		CurrentValue:            a.CurrentValue.String(),
		CreatedAt:               a.CreatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list assets", err)
		return
	}
	out := make([]assetResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAssetResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	asset, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get asset", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssetResponse(asset))
}

type createAssetRequest struct {
	Name             string `json:"name"`
	Category         string `json:"category"`
	AcquisitionDate  string `json:"acquisition_date"`
	AcquisitionPrice string `json:"acquisition_price"`
	SalvageValue     string `json:"salvage_value"`
	UsefulLifeMonths int    `json:"useful_life_months"`
	Method           string `json:"method"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	acquired, err := time.Parse("2006-01-02", req.AcquisitionDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "acquisition_date must be YYYY-MM-DD")
		return
	}
	price, err := decimal.NewFromString(req.AcquisitionPrice)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "acquisition_price is not a decimal")
		return
	}
	salvage := decimal.Zero
	if req.SalvageValue != "" {
		if salvage, err = decimal.NewFromString(req.SalvageValue); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "salvage_value is not a decimal")
			return
		}
	}
	in := CreateInput{
		Name:             req.Name,
		Category:         req.Category,
		AcquisitionDate:  acquired,
		AcquisitionPrice: price,
		SalvageValue:     salvage,
		UsefulLifeMonths: req.UsefulLifeMonths,
		Method:           DepreciationMethod(req.Method),
		ActorID:          httpx.ActorID(r),
	}
	if err := in.Validate(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	asset, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create asset", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAssetResponse(asset))
}

func (h *Handler) handleDepreciate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	asOf, err := httpx.QueryDate(r, "as_of", time.Time{})
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
		return
	}
	asset, err := h.service.CalculateDepreciation(r.Context(), id, asOf, httpx.ActorID(r))
	if err != nil {
		h.respondError(w, "depreciate asset", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
