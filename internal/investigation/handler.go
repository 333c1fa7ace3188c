package investigation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-wms/atlas-wms/internal/platform/httpx"
	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// Handler wires read-only HTTP endpoints for cases.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs investigation handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers investigation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/investigations", h.handleList)
	r.Get("/investigations/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters := parseListFilters(r)
	cases, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list investigations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       cases,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
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
	if id, err := strconv.ParseInt(q.Get("inventory_id"), 10, 64); err == nil && id > 0 {
		filters.InventoryID = &id
	}
	if id, err := strconv.ParseInt(q.Get("item_id"), 10, 64); err == nil && id > 0 {
		filters.ItemID = &id
	}
	if status := q.Get("status"); status != "" {
		s := Status(status)
		filters.Status = &s
	}
	return filters
}
