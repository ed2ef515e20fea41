package models

import (
	"time"

	"github.com/google/uuid"
)

// Video is a read-only input ingested from the source platform. The
// orchestrator never mutates it.
type Video struct {
	ID           uuid.UUID `json:"id"`
	ExternalID   string    `json:"external_id"` // source platform video id
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	GroupID      string    `json:"group_id"` // owning content group (playlist)
	CanonicalURL string    `json:"canonical_url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	PublishedAt  time.Time `json:"published_at"` // publish date on the source platform
	CreatedAt    time.Time `json:"created_at"`
}

type IngestRequest struct {
	PlaylistID string `json:"playlist_id"`
}
