package handler

import (
	"encoding/json"
	"net/http"

	"formpilot/internal/model"
	"formpilot/internal/service"
	"formpilot/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// FormHandler handles form analysis and selection endpoints
type FormHandler struct {
	formSvc *service.FormService
}

// NewFormHandler creates a new form handler
func NewFormHandler(formSvc *service.FormService) *FormHandler {
	return &FormHandler{formSvc: formSvc}
}

// AnalyzeRequest is the request body for analyzing a form
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// SelectionResponse is a selection plus its per-question weight totals
type SelectionResponse struct {
	*model.Selection
	Totals map[string]int `json:"totals"`
}

func newSelectionResponse(sel *model.Selection) *SelectionResponse {
	return &SelectionResponse{Selection: sel, Totals: sel.Totals()}
}

// Analyze handles POST /v1/forms/analyze
func (h *FormHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sel, err := h.formSvc.Select(r.Context(), middleware.GetUserID(r.Context()), req.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSelectionResponse(sel))
}

// GetSelection handles GET /v1/forms/selection
func (h *FormHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	sel, err := h.formSvc.Selection(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSelectionResponse(sel))
}

// UpdateSelection handles PUT /v1/forms/selection
func (h *FormHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req service.SelectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sel, err := h.formSvc.UpdateSelection(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSelectionResponse(sel))
}

// Balance handles POST /v1/forms/selection/questions/{questionId}/balance
func (h *FormHandler) Balance(w http.ResponseWriter, r *http.Request) {
	questionID := mux.Vars(r)["questionId"]

	sel, err := h.formSvc.Balance(r.Context(), middleware.GetUserID(r.Context()), questionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSelectionResponse(sel))
}
