package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
)

const (
	defaultItemPageSize = 50
	maxItemPageSize     = 200
)

// ItemsHandler serves the normalized media catalog.
type ItemsHandler struct {
	itemRepo repositories.ItemRepository
	logger   *zap.Logger
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(itemRepo repositories.ItemRepository, logger *zap.Logger) *ItemsHandler {
	return &ItemsHandler{itemRepo: itemRepo, logger: logger}
}

// RegisterRoutes registers the items handler's routes on the given mux.
func (h *ItemsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /items", h.List)
	mux.HandleFunc("GET /items/stats/sources", h.SourceStats)
	mux.HandleFunc("GET /items/{id}", h.Get)
}

// List handles GET /items with optional source, search, limit, offset
// query parameters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	source := q.Get("source")
	if source != "" && source != models.SourceNetflix && source != models.SourceYouTube {
		h.writeError(w, http.StatusBadRequest, "invalid_source", "source must be NETFLIX or YOUTUBE")
		return
	}

	limit := parseIntParam(q.Get("limit"), defaultItemPageSize)
	if limit <= 0 || limit > maxItemPageSize {
		limit = defaultItemPageSize
	}
	offset := parseIntParam(q.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	items, err := h.itemRepo.List(r.Context(), repositories.ItemFilter{
		Source: source,
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Error("failed to list items", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list items")
		return
	}

	if items == nil {
		items = []*models.Item{}
	}
	if err := WriteJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)}); err != nil {
		h.logger.Error("Failed to encode items response", zap.Error(err))
	}
}

// Get handles GET /items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_item_id", "Item ID must be a UUID")
		return
	}

	item, err := h.itemRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Item not found")
			return
		}
		h.logger.Error("failed to get item", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get item")
		return
	}

	if err := WriteJSON(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode item response", zap.Error(err))
	}
}

// SourceStats handles GET /items/stats/sources.
func (h *ItemsHandler) SourceStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.itemRepo.CountsBySource(r.Context())
	if err != nil {
		h.logger.Error("failed to count items", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to count items")
		return
	}

	if counts == nil {
		counts = []repositories.SourceCount{}
	}
	if err := WriteJSON(w, http.StatusOK, map[string]any{"sources": counts}); err != nil {
		h.logger.Error("Failed to encode stats response", zap.Error(err))
	}
}

func (h *ItemsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// parseIntParam parses a query integer, returning def when absent or
// malformed.
func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
