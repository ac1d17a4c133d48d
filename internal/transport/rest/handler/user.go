package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"formpilot/internal/model"
	"formpilot/internal/service"
	"formpilot/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// UserHandler handles admin account endpoints and the name pool
type UserHandler struct {
	userSvc *service.UserService
	nameSvc *service.NameService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userSvc *service.UserService, nameSvc *service.NameService) *UserHandler {
	return &UserHandler{userSvc: userSvc, nameSvc: nameSvc}
}

// List handles GET /v1/admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /v1/admin/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userSvc.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update handles PUT /v1/admin/users/{userId}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userSvc.Update(r.Context(), mux.Vars(r)["userId"], &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Usage handles GET /v1/admin/usage?limit=
func (h *UserHandler) Usage(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	entries, err := h.userSvc.Usage(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Reseed handles POST /v1/names/reseed
func (h *UserHandler) Reseed(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.nameSvc.Reseed(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"remaining": remaining})
}
