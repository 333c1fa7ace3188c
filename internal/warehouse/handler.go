package warehouse

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-wms/atlas-wms/internal/platform/httpx"
	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// Handler wires HTTP endpoints for the warehouse module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs warehouse handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers warehouse routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/storage-points", h.handleListStoragePoints)
	r.Post("/storage-points", h.handleCreateStoragePoint)
	r.Get("/storage-points/{id}", h.handleGetStoragePoint)
	r.Post("/areas", h.handleCreateArea)
	r.Get("/areas/{id}", h.handleGetArea)
	r.Get("/locations", h.handleListLocations)
	r.Post("/locations", h.handleCreateLocation)
	r.Get("/locations/{id}", h.handleGetLocation)
	r.Get("/locations/{id}/ancestors", h.handleAncestors)
	r.Get("/locations/{id}/descendants", h.handleDescendants)
}

type createStoragePointRequest struct {
	Code string `json:"code" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=255"`
}

type createAreaRequest struct {
	StoragePointID int64  `json:"storage_point_id" validate:"required,gt=0"`
	Name           string `json:"name" validate:"required,max=255"`
	Kind           string `json:"kind,omitempty" validate:"omitempty,oneof=ORDINARY DEAD_STOCK"`
}

type createLocationRequest struct {
	ParentID  *int64 `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	AreaID    *int64 `json:"area_id,omitempty" validate:"omitempty,gt=0"`
	Reference string `json:"reference,omitempty" validate:"omitempty,max=64"`
	Barcode   string `json:"barcode,omitempty" validate:"omitempty,max=64"`
}

func (h *Handler) handleListStoragePoints(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r)
	points, total, err := h.service.ListStoragePoints(r.Context(), filters)
	if err != nil {
		h.logger.Error("list storage points", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       points,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleCreateStoragePoint(w http.ResponseWriter, r *http.Request) {
	var req createStoragePointRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	sp, err := h.service.CreateStoragePoint(r.Context(), StoragePoint{Code: req.Code, Name: req.Name})
	if err != nil {
		h.logger.Error("create storage point", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sp)
}

func (h *Handler) handleGetStoragePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	sp, err := h.service.GetStoragePoint(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sp)
}

func (h *Handler) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	var req createAreaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	area, err := h.service.CreateArea(r.Context(), Area{StoragePointID: req.StoragePointID, Name: req.Name, Kind: AreaKind(req.Kind)})
	if err != nil {
		h.logger.Error("create area", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, area)
}

func (h *Handler) handleGetArea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	area, err := h.service.GetArea(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, area)
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r)
	locations, total, err := h.service.ListLocations(r.Context(), filters)
	if err != nil {
		h.logger.Error("list locations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       locations,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	loc, err := h.service.CreateLocation(r.Context(), Location{
		ParentID:  req.ParentID,
		AreaID:    req.AreaID,
		Reference: req.Reference,
		Barcode:   req.Barcode,
	})
	if err != nil {
		h.logger.Error("create location", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loc)
}

func (h *Handler) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	loc, err := h.service.GetLocation(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loc)
}

func (h *Handler) handleAncestors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	ancestors, err := h.service.Ancestors(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": ancestors})
}

func (h *Handler) handleDescendants(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	withItems := r.URL.Query().Get("with_items") == "true"
	result, err := h.service.Descendants(r.Context(), id, withItems)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{Search: q.Get("search"), Page: 1, Limit: 50}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filters.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 500 {
		filters.Limit = limit
	}
	if id, err := strconv.ParseInt(q.Get("storage_point_id"), 10, 64); err == nil && id > 0 {
		filters.StoragePointID = &id
	}
	if id, err := strconv.ParseInt(q.Get("area_id"), 10, 64); err == nil && id > 0 {
		filters.AreaID = &id
	}
	return filters
}
