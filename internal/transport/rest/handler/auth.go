package handler

import (
	"encoding/json"
	"net/http"

	"formpilot/internal/model"
	"formpilot/internal/service"
	"formpilot/internal/transport/rest/middleware"

	"go.uber.org/zap"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
	userSvc *service.UserService
	nameSvc *service.NameService
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, userSvc *service.UserService, nameSvc *service.NameService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc, nameSvc: nameSvc, logger: logger}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// a new session starts with a fresh name pool
	if _, err := h.nameSvc.SeedSession(r.Context(), resp.User.UserID); err != nil {
		h.logger.Warn("name pool seeding failed", zap.String("user", resp.User.UserID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /v1/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
