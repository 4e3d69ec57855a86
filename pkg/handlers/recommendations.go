package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/services"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// RecommendationsHandler serves stored recommendations and triggers
// refreshes.
type RecommendationsHandler struct {
	recommenderSvc *services.RecommenderService
	jobSvc         *services.JobService
	queue          workqueue.TaskEnqueuer
	logger         *zap.Logger
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(
	recommenderSvc *services.RecommenderService,
	jobSvc *services.JobService,
	queue workqueue.TaskEnqueuer,
	logger *zap.Logger,
) *RecommendationsHandler {
	return &RecommendationsHandler{
		recommenderSvc: recommenderSvc,
		jobSvc:         jobSvc,
		queue:          queue,
		logger:         logger,
	}
}

// RegisterRoutes registers the recommendations handler's routes on the
// given mux.
func (h *RecommendationsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /recommendations", h.List)
	mux.HandleFunc("POST /recommendations/refresh", h.Refresh)
	mux.HandleFunc("GET /recommendations/similar/{id}", h.Similar)
}

// List handles GET /recommendations?user_id=...&limit=...
func (h *RecommendationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a UUID")
		return
	}
	limit := parseIntParam(r.URL.Query().Get("limit"), 0)

	recs, err := h.recommenderSvc.List(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("failed to list recommendations", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list recommendations")
		return
	}

	if recs == nil {
		recs = []*models.Recommendation{}
	}
	if err := WriteJSON(w, http.StatusOK, map[string]any{"recommendations": recs, "count": len(recs)}); err != nil {
		h.logger.Error("Failed to encode recommendations response", zap.Error(err))
	}
}

// Refresh handles POST /recommendations/refresh?user_id=...
// Enqueues the recompute job and returns its ID.
func (h *RecommendationsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a UUID")
		return
	}

	job, err := h.jobSvc.Create(r.Context(), models.JobKindRefreshRecommendations)
	if err != nil {
		h.logger.Error("failed to create job", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create job")
		return
	}

	h.queue.Enqueue(services.NewRefreshRecommendationsTask(h.recommenderSvc, h.jobSvc, job.ID, userID))

	if err := WriteJSON(w, http.StatusAccepted, map[string]string{"task_id": job.ID}); err != nil {
		h.logger.Error("Failed to encode job response", zap.Error(err))
	}
}

// Similar handles GET /recommendations/similar/{id}?limit=...
// Nearest-neighbor lookup in embedding space, served directly from
// pgvector.
func (h *RecommendationsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_item_id", "Item ID must be a UUID")
		return
	}
	limit := parseIntParam(r.URL.Query().Get("limit"), 0)

	items, err := h.recommenderSvc.Similar(r.Context(), itemID, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Item not found")
			return
		}
		h.logger.Error("failed to find similar items", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to find similar items")
		return
	}

	if items == nil {
		items = []*models.Item{}
	}
	if err := WriteJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)}); err != nil {
		h.logger.Error("Failed to encode similar items response", zap.Error(err))
	}
}

func (h *RecommendationsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
