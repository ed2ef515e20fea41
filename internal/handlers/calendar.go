package handlers

import (
	"net/http"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/services"
)

type CalendarHandler struct {
	projections *services.ProjectionService
}

func NewCalendarHandler(projections *services.ProjectionService) *CalendarHandler {
	return &CalendarHandler{projections: projections}
}

func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	days, err := h.projections.Calendar(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.CalendarDay{"days": days})
}
