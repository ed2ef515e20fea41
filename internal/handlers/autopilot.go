package handlers

import (
	"net/http"

	"crosspost-backend/internal/middleware"
	"crosspost-backend/internal/services"
)

type AutopilotHandler struct {
	autopilot *services.AutopilotService
	targeting *services.TargetingService
}

func NewAutopilotHandler(autopilot *services.AutopilotService, targeting *services.TargetingService) *AutopilotHandler {
	return &AutopilotHandler{autopilot: autopilot, targeting: targeting}
}

// Run executes one auto-pilot pass and returns what it selected and scheduled.
func (h *AutopilotHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.autopilot.Run(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Dispatch enqueues a publish job for every scheduled post whose time has
// come. Hit this from cron.
func (h *AutopilotHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	dispatched, err := h.targeting.DispatchDue(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"dispatched": dispatched})
}
