package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
	"crosspost-backend/internal/services"
)

type ScheduleHandler struct {
	targeting *services.TargetingService
}

func NewScheduleHandler(targeting *services.TargetingService) *ScheduleHandler {
	return &ScheduleHandler{targeting: targeting}
}

type scheduleRequest struct {
	VideoID          uuid.UUID `json:"video_id"`
	Platform         string    `json:"platform"`
	Platforms        []string  `json:"platforms"`
	PostContent      string    `json:"post_content"`
	ScheduleDatetime string    `json:"schedule_datetime"`
	PublishNow       bool      `json:"publish_now"`
}

type scheduleResponse struct {
	Outcomes []models.PerPlatformOutcome `json:"outcomes"`
}

// Schedule targets one video at one or more platforms. The response always
// carries one outcome per requested platform, in request order.
func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.VideoID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"video_id": "Video ID is required"}, r))
		return
	}

	names := req.Platforms
	if len(names) == 0 && req.Platform != "" {
		names = []string{req.Platform}
	}
	platforms := make([]platform.Platform, 0, len(names))
	for _, name := range names {
		p, err := platform.Parse(name)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		platforms = append(platforms, p)
	}

	var when *time.Time
	if req.ScheduleDatetime != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduleDatetime)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"schedule_datetime": "Must be an RFC3339 timestamp"}, r))
			return
		}
		when = &t
	}

	mode := services.ModeSchedule
	if req.PublishNow {
		mode = services.ModePublishNow
	}

	outcomes, err := h.targeting.TargetPlatforms(r.Context(), req.VideoID, platforms, mode, when, req.PostContent)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scheduleResponse{Outcomes: outcomes})
}
