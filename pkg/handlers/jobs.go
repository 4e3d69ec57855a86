package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/services"
)

// JobsHandler serves background job status for polling clients.
type JobsHandler struct {
	jobSvc *services.JobService
	logger *zap.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(jobSvc *services.JobService, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{jobSvc: jobSvc, logger: logger}
}

// RegisterRoutes registers the jobs handler's routes on the given mux.
func (h *JobsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /jobs", h.List)
	mux.HandleFunc("GET /jobs/{tid}", h.Get)
}

// Get handles GET /jobs/{tid}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSvc.Get(r.Context(), r.PathValue("tid"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Job not found")
			return
		}
		h.logger.Error("failed to get job", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get job")
		return
	}

	if err := WriteJSON(w, http.StatusOK, job); err != nil {
		h.logger.Error("Failed to encode job response", zap.Error(err))
	}
}

// List handles GET /jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobSvc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list jobs")
		return
	}

	if jobs == nil {
		jobs = []*models.Job{}
	}
	if err := WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)}); err != nil {
		h.logger.Error("Failed to encode jobs response", zap.Error(err))
	}
}

func (h *JobsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
