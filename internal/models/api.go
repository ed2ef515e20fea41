package models

import (
	"time"

	"github.com/google/uuid"

	"crosspost-backend/internal/platform"
)

// WebSocket message envelope pushed to connected dashboards.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// PostEvent notifies the dashboard that a post changed state.
type PostEvent struct {
	PostID      uuid.UUID          `json:"post_id"`
	VideoID     uuid.UUID          `json:"video_id"`
	Platform    platform.Platform  `json:"platform"`
	Status      PostStatus         `json:"status"`
	ErrorKind   platform.ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail string             `json:"error_detail,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// QueueView groups posts by lifecycle bucket for the queue screen.
type QueueView struct {
	Pending   []PostWithVideo `json:"pending"`
	Scheduled []PostWithVideo `json:"scheduled"`
	Published []PostWithVideo `json:"published"`
	Errored   []PostWithVideo `json:"errored"`
}

// CalendarDay is one rendered calendar cell: every non-draft post whose
// timestamp falls on that date, ascending.
type CalendarDay struct {
	Date  string          `json:"date"` // YYYY-MM-DD in the cadence timezone
	Posts []PostWithVideo `json:"posts"`
}

// API error envelope

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
