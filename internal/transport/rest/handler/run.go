package handler

import (
	"encoding/json"
	"net/http"

	"formpilot/internal/service"
	"formpilot/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// RunHandler handles submission run endpoints
type RunHandler struct {
	runSvc *service.RunService
}

// NewRunHandler creates a new run handler
func NewRunHandler(runSvc *service.RunService) *RunHandler {
	return &RunHandler{runSvc: runSvc}
}

// StartRunRequest is the request body for starting a run
type StartRunRequest struct {
	Count int `json:"count"`
}

// Start handles POST /v1/runs
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	run, err := h.runSvc.StartForUser(r.Context(), middleware.GetUserID(r.Context()), req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, run.Snapshot())
}

// Get handles GET /v1/runs/{runId}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.runSvc.Get(middleware.GetUserID(r.Context()), mux.Vars(r)["runId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

// Cancel handles POST /v1/runs/{runId}/cancel
func (h *RunHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	run, err := h.runSvc.Cancel(middleware.GetUserID(r.Context()), mux.Vars(r)["runId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, run.Snapshot())
}
