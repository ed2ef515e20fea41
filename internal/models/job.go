package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is an async unit of work carried over the redis queues. Two types
// exist: "video-ingest" (pull a playlist into the video library) and
// "publish-post" (execute one due scheduled post).
type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"` // "video-ingest" | "publish-post"
	ReferenceID  uuid.UUID       `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

const (
	JobTypeVideoIngest = "video-ingest"
	JobTypePublishPost = "publish-post"

	QueueVideoIngest = "queue:video-ingest"
	QueuePublishPost = "queue:publish-post"
)

// IngestJobConfig is the ConfigJSON payload of a video-ingest job.
type IngestJobConfig struct {
	PlaylistID string `json:"playlist_id"`
}
