package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-wms/atlas-wms/internal/platform/httpx"
	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// Handler wires HTTP endpoints for the movement ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/movements", h.handleList)
	r.Post("/movements", h.handleRecord)
	r.Get("/movements/{id}", h.handleGet)
}

type recordMovementRequest struct {
	Kind             string `json:"kind,omitempty" validate:"omitempty,oneof=INTERNAL STOCK_ADJUSTMENT RECEPTION SHIPMENT"`
	Origin           string `json:"origin" validate:"required,oneof=INVENTORY RECEPTION REQUISITION RETURN"`
	ItemID           int64  `json:"item_id" validate:"required,gt=0"`
	SourceLocationID *int64 `json:"source_location_id,omitempty" validate:"omitempty,gt=0"`
	SourceTag        string `json:"source_tag,omitempty" validate:"omitempty,max=64"`
	TargetLocationID *int64 `json:"target_location_id,omitempty" validate:"omitempty,gt=0"`
	TargetTag        string `json:"target_tag,omitempty" validate:"omitempty,max=64"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters := parseListFilters(r)
	movements, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       movements,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	movement, err := h.service.Record(r.Context(), Movement{
		Kind:    MovementKind(req.Kind),
		Trigger: TriggerOperator,
		Origin:  Origin(req.Origin),
		ItemID:  req.ItemID,
		Source:  Endpoint{LocationID: req.SourceLocationID, Tag: req.SourceTag},
		Target:  Endpoint{LocationID: req.TargetLocationID, Tag: req.TargetTag},
	})
	if err != nil {
		h.logger.Error("record movement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	movement, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func parseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{Page: 1, Limit: 50}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filters.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 500 {
		filters.Limit = limit
	}
	if kind := q.Get("kind"); kind != "" {
		k := MovementKind(kind)
		filters.Kind = &k
	}
	if origin := q.Get("origin"); origin != "" {
		o := Origin(origin)
		filters.Origin = &o
	}
	if id, err := strconv.ParseInt(q.Get("item_id"), 10, 64); err == nil && id > 0 {
		filters.ItemID = &id
	}
	if id, err := strconv.ParseInt(q.Get("inventory_id"), 10, 64); err == nil && id > 0 {
		filters.InventoryID = &id
	}
	if id, err := strconv.ParseInt(q.Get("location_id"), 10, 64); err == nil && id > 0 {
		filters.LocationID = &id
	}
	return filters
}
