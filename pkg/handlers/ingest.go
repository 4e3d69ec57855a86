package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
	"github.com/a-s-adam/streamlink/pkg/services"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// maxUploadBytes caps Netflix CSV uploads. A decade of viewing history
// stays well under this.
const maxUploadBytes = 32 << 20

// IngestHandler accepts history uploads and OAuth callbacks, turning
// them into background jobs. The HTTP response only carries the job ID;
// clients poll /jobs/{id} for the outcome.
type IngestHandler struct {
	userRepo   repositories.UserRepository
	ingestSvc  *services.IngestionService
	enrichSvc  *services.EnrichmentService
	embedSvc   *services.EmbeddingService
	youtubeSvc *services.YouTubeService
	jobSvc     *services.JobService
	queue      workqueue.TaskEnqueuer
	mockMode   bool
	logger     *zap.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(
	userRepo repositories.UserRepository,
	ingestSvc *services.IngestionService,
	enrichSvc *services.EnrichmentService,
	embedSvc *services.EmbeddingService,
	youtubeSvc *services.YouTubeService,
	jobSvc *services.JobService,
	queue workqueue.TaskEnqueuer,
	mockMode bool,
	logger *zap.Logger,
) *IngestHandler {
	return &IngestHandler{
		userRepo:   userRepo,
		ingestSvc:  ingestSvc,
		enrichSvc:  enrichSvc,
		embedSvc:   embedSvc,
		youtubeSvc: youtubeSvc,
		jobSvc:     jobSvc,
		queue:      queue,
		mockMode:   mockMode,
		logger:     logger,
	}
}

// RegisterRoutes registers the ingest handler's routes on the given mux.
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ingest/netflix", h.IngestNetflix)
	mux.HandleFunc("POST /ingest/youtube/start", h.StartYouTubeOAuth)
	mux.HandleFunc("POST /ingest/youtube/callback", h.YouTubeOAuthCallback)
	mux.HandleFunc("POST /ingest/youtube/mock", h.IngestYouTubeMock)
}

// IngestNetflix handles POST /ingest/netflix.
// Accepts a multipart form with a "file" CSV upload and a "user_id"
// field, and enqueues the ingestion job.
func (h *IngestHandler) IngestNetflix(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_form", "Expected multipart form with file and user_id")
		return
	}

	userID, ok := h.resolveUser(w, r, r.FormValue("user_id"))
	if !ok {
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing_file", "A CSV file upload is required")
		return
	}
	defer file.Close()

	csvData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable_file", "Failed to read uploaded file")
		return
	}

	job, err := h.jobSvc.Create(r.Context(), models.JobKindIngestNetflix)
	if err != nil {
		h.logger.Error("failed to create job", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create job")
		return
	}

	h.queue.Enqueue(services.NewIngestNetflixTask(
		h.ingestSvc, h.enrichSvc, h.embedSvc, h.jobSvc, h.logger,
		job.ID, userID, csvData,
	))

	h.writeAccepted(w, job.ID)
}

// StartYouTubeOAuth handles POST /ingest/youtube/start.
// Returns the consent URL the client should redirect the user to.
func (h *IngestHandler) StartYouTubeOAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.youtubeSvc.AuthURL(r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "oauth_unconfigured", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"oauth_url": authURL}); err != nil {
		h.logger.Error("Failed to encode oauth response", zap.Error(err))
	}
}

type youtubeCallbackRequest struct {
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

// YouTubeOAuthCallback handles POST /ingest/youtube/callback.
// Exchanges the authorization code, stores the refresh token on the
// user, and enqueues a history ingestion job.
func (h *IngestHandler) YouTubeOAuthCallback(w http.ResponseWriter, r *http.Request) {
	var req youtubeCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}
	if req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "missing_code", "Authorization code is required")
		return
	}

	userID, ok := h.resolveUser(w, r, req.UserID)
	if !ok {
		return
	}

	token, err := h.youtubeSvc.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "oauth_exchange_failed", "Failed to exchange authorization code")
		return
	}

	if token.RefreshToken != "" {
		if err := h.userRepo.SetYouTubeRefreshToken(r.Context(), userID, token.RefreshToken); err != nil {
			h.logger.Error("failed to store refresh token", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to store credentials")
			return
		}
	}

	job, err := h.jobSvc.Create(r.Context(), models.JobKindIngestYouTube)
	if err != nil {
		h.logger.Error("failed to create job", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create job")
		return
	}

	h.queue.Enqueue(services.NewIngestYouTubeTask(
		h.youtubeSvc, h.ingestSvc, h.embedSvc, h.jobSvc, h.logger,
		job.ID, userID, token,
	))

	h.writeAccepted(w, job.ID)
}

// IngestYouTubeMock handles POST /ingest/youtube/mock.
// Mock-mode shortcut that ingests the canned history without OAuth.
func (h *IngestHandler) IngestYouTubeMock(w http.ResponseWriter, r *http.Request) {
	if !h.mockMode {
		h.writeError(w, http.StatusForbidden, "mock_disabled", "Mock ingestion requires mock mode")
		return
	}

	userID, ok := h.resolveUser(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	job, err := h.jobSvc.Create(r.Context(), models.JobKindIngestYouTube)
	if err != nil {
		h.logger.Error("failed to create job", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create job")
		return
	}

	h.queue.Enqueue(services.NewIngestYouTubeTask(
		h.youtubeSvc, h.ingestSvc, h.embedSvc, h.jobSvc, h.logger,
		job.ID, userID, nil,
	))

	h.writeAccepted(w, job.ID)
}

// resolveUser parses and verifies the user reference, writing the error
// response itself when the value is unusable.
func (h *IngestHandler) resolveUser(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	userID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a UUID")
		return uuid.Nil, false
	}

	if _, err := h.userRepo.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "user_not_found", "User not found")
			return uuid.Nil, false
		}
		h.logger.Error("failed to verify user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to verify user")
		return uuid.Nil, false
	}

	return userID, true
}

func (h *IngestHandler) writeAccepted(w http.ResponseWriter, jobID string) {
	if err := WriteJSON(w, http.StatusAccepted, map[string]string{"task_id": jobID}); err != nil {
		h.logger.Error("Failed to encode job response", zap.Error(err))
	}
}

func (h *IngestHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
