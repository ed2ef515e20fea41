package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

// Store seams over internal/repository so the orchestration services can be
// exercised against in-memory fakes.

type PostStore interface {
	UpsertTarget(ctx context.Context, post *models.SocialPost) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SocialPost, error)
	ListOccupiedSlots(ctx context.Context) ([]time.Time, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error)
	ListNonDraft(ctx context.Context) ([]models.PostWithVideo, error)
	MarkPublished(ctx context.Context, id uuid.UUID, platformPostID string, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, kind platform.ErrorKind, detail string) error
	UpdateSchedule(ctx context.Context, id uuid.UUID, at time.Time) error
}

type VideoStore interface {
	Upsert(ctx context.Context, v *models.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	List(ctx context.Context) ([]*models.Video, error)
	ListAutopilotCandidates(ctx context.Context, platforms []platform.Platform) ([]*models.Video, error)
}

type CredentialStore interface {
	Get(ctx context.Context, p platform.Platform) (*models.PlatformCredential, error)
	Upsert(ctx context.Context, c *models.PlatformCredential) error
	MarkStatus(ctx context.Context, p platform.Platform, status models.CredentialStatus) error
}

type JobStore interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

// Executor is the one-attempt publish boundary consumed by targeting,
// dispatch and force-publish.
type Executor interface {
	Execute(ctx context.Context, post *models.SocialPost) models.PerPlatformOutcome
}

// EventSink pushes post lifecycle events toward connected dashboards.
type EventSink interface {
	PublishPostEvent(ctx context.Context, ev models.PostEvent)
}

// Enqueuer hands jobs to the redis-backed worker queues.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue string, job *models.Job) error
}
