package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/repositories"
)

// UsersHandler handles user resolution and lookup.
type UsersHandler struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userRepo repositories.UserRepository, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{userRepo: userRepo, logger: logger}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", h.GetOrCreate)
	mux.HandleFunc("GET /users/{uid}", h.Get)
}

type getOrCreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// GetOrCreate handles POST /users.
// Resolves a user by email, creating the record on first contact.
func (h *UsersHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req getOrCreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		h.writeError(w, http.StatusBadRequest, "invalid_email", "A valid email is required")
		return
	}

	user, err := h.userRepo.GetOrCreate(r.Context(), req.Email, req.Name, req.Image)
	if err != nil {
		h.logger.Error("failed to resolve user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to resolve user")
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

// Get handles GET /users/{uid}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := uuid.Parse(r.PathValue("uid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_user_id", "User ID must be a UUID")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.logger.Error("failed to get user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get user")
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

func (h *UsersHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
