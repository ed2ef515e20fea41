package handlers

import (
	"encoding/json"
	"net/http"

	"crosspost-backend/internal/middleware"
	"crosspost-backend/internal/models"
	"crosspost-backend/internal/services"
)

type VideoHandler struct {
	videos services.VideoStore
	jobs   services.JobStore
	queue  services.Enqueuer
}

func NewVideoHandler(videos services.VideoStore, jobs services.JobStore, queue services.Enqueuer) *VideoHandler {
	return &VideoHandler{videos: videos, jobs: jobs, queue: queue}
}

// Ingest enqueues a playlist ingestion job. The worker pulls the playlist and
// upserts its videos into the library.
func (h *VideoHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.PlaylistID == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"playlist_id": "Playlist ID is required"}, r))
		return
	}

	config, _ := json.Marshal(models.IngestJobConfig{PlaylistID: req.PlaylistID})
	job := &models.Job{
		UserID:     middleware.GetUserID(r.Context()),
		Type:       models.JobTypeVideoIngest,
		ConfigJSON: config,
	}
	if err := h.jobs.Create(r.Context(), job); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.queue.Enqueue(r.Context(), models.QueueVideoIngest, job); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videos.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
}
