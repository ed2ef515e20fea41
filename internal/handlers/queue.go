package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crosspost-backend/internal/services"
)

type QueueHandler struct {
	projections *services.ProjectionService
	targeting   *services.TargetingService
}

func NewQueueHandler(projections *services.ProjectionService, targeting *services.TargetingService) *QueueHandler {
	return &QueueHandler{projections: projections, targeting: targeting}
}

func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	view, err := h.projections.Queue(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type rescheduleRequest struct {
	ScheduleDatetime string `json:"schedule_datetime"`
}

func (h *QueueHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid post ID", r))
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduleDatetime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"schedule_datetime": "Must be an RFC3339 timestamp"}, r))
		return
	}

	post, err := h.targeting.Reschedule(r.Context(), postID, at)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// ForcePublish runs one post through the executor immediately, bypassing its
// scheduled slot.
func (h *QueueHandler) ForcePublish(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid post ID", r))
		return
	}

	outcome, err := h.targeting.ForcePublish(r.Context(), postID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
