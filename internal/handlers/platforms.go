package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
	"crosspost-backend/internal/services"
)

type PlatformHandler struct {
	credentials *services.CredentialService
}

func NewPlatformHandler(credentials *services.CredentialService) *PlatformHandler {
	return &PlatformHandler{credentials: credentials}
}

// List returns every platform with its capabilities and credential health.
func (h *PlatformHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.credentials.PlatformOverview(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"platforms": infos})
}

func (h *PlatformHandler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	p, err := platform.Parse(chi.URLParam(r, "platform"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req models.UpdateCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.credentials.UpdateCredentials(r.Context(), p, req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Credentials updated"})
}
