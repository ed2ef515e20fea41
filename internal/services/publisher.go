package services

import (
	"context"
	"log"
	"time"

	"crosspost-backend/internal/metrics"
	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

// PublishExecutor dispatches one post to its platform adapter, classifies the
// result and persists the state transition. Exactly one attempt per call:
// batch operations aggregate partial success, they never loop here.
type PublishExecutor struct {
	adapters map[platform.Platform]platform.Adapter
	posts    PostStore
	videos   VideoStore
	creds    CredentialStore
	events   EventSink
	notifier *Notifier
	now      func() time.Time
}

func NewPublishExecutor(
	adapters map[platform.Platform]platform.Adapter,
	posts PostStore,
	videos VideoStore,
	creds CredentialStore,
	events EventSink,
	notifier *Notifier,
) *PublishExecutor {
	return &PublishExecutor{
		adapters: adapters,
		posts:    posts,
		videos:   videos,
		creds:    creds,
		events:   events,
		notifier: notifier,
		now:      time.Now,
	}
}

// Execute runs a single publish attempt and returns the per-platform outcome.
// Adapter timeouts are the adapter's concern; whatever comes back is
// classified, never surfaced raw.
func (e *PublishExecutor) Execute(ctx context.Context, post *models.SocialPost) models.PerPlatformOutcome {
	outcome := models.PerPlatformOutcome{Platform: post.Platform, PostID: &post.ID}

	if post.Status == models.StatusPublished {
		outcome.Status = models.OutcomeRejected
		outcome.ErrorKind = platform.KindAlreadyPublished
		outcome.ErrorDetail = "post is already published"
		return outcome
	}

	video, err := e.videos.GetByID(ctx, post.VideoID)
	if err != nil {
		return e.fail(ctx, post, outcome, platform.Classify(err))
	}

	adapter, ok := e.adapters[post.Platform]
	if !ok {
		return e.fail(ctx, post, outcome, platform.NewPublishError(
			platform.KindPlatformRejected, "no adapter configured for "+string(post.Platform)))
	}

	req := platform.PublishRequest{
		VideoExternalID: video.ExternalID,
		VideoURL:        video.CanonicalURL,
		Title:           video.Title,
		Content:         post.Content,
		Tags:            video.Tags,
	}
	if video.ThumbnailURL != nil {
		req.ThumbnailURL = *video.ThumbnailURL
	}

	result, err := adapter.Publish(ctx, req)
	if err != nil {
		return e.fail(ctx, post, outcome, platform.Classify(err))
	}

	// The platform post exists at this point. A lost status write would let a
	// later dispatch re-post, so the write gets one immediate retry and any
	// remaining failure rides on the outcome.
	publishedAt := e.now()
	persistErr := e.posts.MarkPublished(ctx, post.ID, result.PlatformPostID, publishedAt)
	if persistErr != nil {
		persistErr = e.posts.MarkPublished(ctx, post.ID, result.PlatformPostID, publishedAt)
	}
	if persistErr != nil {
		log.Printf("Publish succeeded on %s but persisting post %s failed: %v", post.Platform, post.ID, persistErr)
		outcome.ErrorDetail = "published but recording the result failed: " + persistErr.Error()
	}
	post.Transition(models.StatusPublished)
	post.PlatformPostID = &result.PlatformPostID
	post.PublishedAt = &publishedAt

	metrics.PublishAttempts.WithLabelValues(string(post.Platform), "published").Inc()
	e.emit(ctx, post, "", "")

	outcome.Status = models.OutcomePublished
	outcome.PlatformPostID = &result.PlatformPostID
	return outcome
}

func (e *PublishExecutor) fail(ctx context.Context, post *models.SocialPost, outcome models.PerPlatformOutcome, pe *platform.PublishError) models.PerPlatformOutcome {
	if err := e.posts.MarkFailed(ctx, post.ID, pe.Kind, pe.Detail); err != nil {
		log.Printf("Failed to record publish error for post %s: %v", post.ID, err)
	}
	post.Transition(models.StatusError)
	post.ErrorKind = pe.Kind

	metrics.PublishAttempts.WithLabelValues(string(post.Platform), string(pe.Kind)).Inc()
	e.emit(ctx, post, pe.Kind, pe.Detail)

	// Credential health is an explicit fact, not something inferred later
	// from error strings.
	if pe.Kind == platform.KindTokenExpired {
		if err := e.creds.MarkStatus(ctx, post.Platform, models.CredentialExpired); err != nil {
			log.Printf("Failed to mark %s credential expired: %v", post.Platform, err)
		}
		if e.notifier != nil {
			e.notifier.TokenExpired(ctx, post.Platform)
		}
	} else if e.notifier != nil {
		e.notifier.PublishFailed(ctx, post.Platform, pe.Kind, pe.Detail)
	}

	outcome.Status = models.OutcomeFailed
	outcome.ErrorKind = pe.Kind
	outcome.ErrorDetail = pe.Detail
	return outcome
}

func (e *PublishExecutor) emit(ctx context.Context, post *models.SocialPost, kind platform.ErrorKind, detail string) {
	if e.events == nil {
		return
	}
	e.events.PublishPostEvent(ctx, models.PostEvent{
		PostID:      post.ID,
		VideoID:     post.VideoID,
		Platform:    post.Platform,
		Status:      post.Status,
		ErrorKind:   kind,
		ErrorDetail: detail,
		OccurredAt:  e.now(),
	})
}
