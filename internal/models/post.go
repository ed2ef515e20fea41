package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"crosspost-backend/internal/platform"
)

// PostStatus is the lifecycle state of a SocialPost.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPending   PostStatus = "pending"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
	StatusError     PostStatus = "error"
)

// Live reports whether the post still holds its (video, platform) pair: at
// most one non-terminal post may exist per pair.
func (s PostStatus) Live() bool {
	return s == StatusDraft || s == StatusPending || s == StatusScheduled
}

// Terminal reports whether no further transition is allowed. Only published
// is truly terminal; error can be retried back to pending.
func (s PostStatus) Terminal() bool {
	return s == StatusPublished
}

var transitions = map[PostStatus][]PostStatus{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusPending, StatusScheduled, StatusPublished, StatusError},
	StatusScheduled: {StatusScheduled, StatusPending, StatusPublished, StatusError},
	StatusError:     {StatusPending, StatusScheduled, StatusPublished, StatusError},
	StatusPublished: {},
}

// SocialPost is a per-platform publishing commitment for one video. Exactly
// one row exists per (video, platform) pair that has ever been targeted.
type SocialPost struct {
	ID             uuid.UUID          `json:"id"`
	VideoID        uuid.UUID          `json:"video_id"`
	Platform       platform.Platform  `json:"platform"`
	Content        string             `json:"content"`
	Status         PostStatus         `json:"status"`
	ScheduledAt    *time.Time         `json:"scheduled_at"`
	PublishedAt    *time.Time         `json:"published_at"`
	PlatformPostID *string            `json:"platform_post_id"`
	ErrorKind      platform.ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail    *string            `json:"error_detail"`
	RetryCount     int                `json:"retry_count"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Transition moves the post to the target status after checking the state
// machine. A transition out of published always fails: platforms do not
// guarantee idempotent re-posting.
func (p *SocialPost) Transition(to PostStatus) error {
	for _, allowed := range transitions[p.Status] {
		if allowed == to {
			p.Status = to
			return nil
		}
	}
	return fmt.Errorf("illegal post transition %s -> %s", p.Status, to)
}

// ValidateScheduleTime enforces the scheduling preconditions: the platform
// must support deferred publishing and the timestamp must be strictly in the
// future. A past timestamp is rejected, never clamped to now.
func ValidateScheduleTime(p platform.Platform, at, now time.Time) error {
	caps, err := platform.CapabilitiesOf(p)
	if err != nil {
		return err
	}
	if !caps.SupportsScheduling {
		return platform.NewPublishError(platform.KindSchedulingUnsupported,
			fmt.Sprintf("%s does not support scheduled posts", p))
	}
	if !at.After(now) {
		return platform.NewPublishError(platform.KindInvalidTimestamp,
			fmt.Sprintf("scheduled time %s is not in the future", at.Format(time.RFC3339)))
	}
	return nil
}

// OutcomeStatus tags one entry of a batch targeting result.
type OutcomeStatus string

const (
	OutcomeScheduled OutcomeStatus = "scheduled"
	OutcomePublished OutcomeStatus = "published"
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeFailed    OutcomeStatus = "failed"
)

// PerPlatformOutcome is one element of the ordered batch result. Every
// requested platform appears exactly once.
type PerPlatformOutcome struct {
	Platform       platform.Platform  `json:"platform"`
	Status         OutcomeStatus      `json:"status"`
	PostID         *uuid.UUID         `json:"post_id,omitempty"`
	PlatformPostID *string            `json:"platform_post_id,omitempty"`
	ScheduledAt    *time.Time         `json:"scheduled_at,omitempty"`
	ErrorKind      platform.ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail    string             `json:"error_detail,omitempty"`
}

type AutopilotReport struct {
	VideosSelected int                  `json:"videos_selected"`
	PostsScheduled int                  `json:"posts_scheduled"`
	Outcomes       []PerPlatformOutcome `json:"outcomes"`
}

// PostWithVideo is a read-model row for queue/calendar rendering.
type PostWithVideo struct {
	SocialPost
	VideoTitle       string  `json:"video_title"`
	VideoExternalID  string  `json:"video_external_id"`
	VideoURL         string  `json:"video_url"`
	VideoThumbnailURL *string `json:"video_thumbnail_url"`
}
