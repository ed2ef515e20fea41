package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crosspost-backend/internal/metrics"
	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
	"crosspost-backend/internal/scheduler"
)

// Mode selects between committing a future slot and publishing right away.
type Mode string

const (
	ModeSchedule   Mode = "schedule"
	ModePublishNow Mode = "publish_now"
)

// TargetingService is the orchestrator core: it partitions the requested
// platforms by capability, derives or validates the publish moment, keeps the
// one-live-post-per-pair invariant through the transactional store, and fans
// publishes out to the executor.
type TargetingService struct {
	posts    PostStore
	videos   VideoStore
	jobs     JobStore
	queue    Enqueuer
	executor Executor
	events   EventSink
	composer *Composer
	cadence  scheduler.Cadence
	now      func() time.Time
}

func NewTargetingService(
	posts PostStore,
	videos VideoStore,
	jobs JobStore,
	queue Enqueuer,
	executor Executor,
	events EventSink,
	composer *Composer,
	cadence scheduler.Cadence,
) *TargetingService {
	return &TargetingService{
		posts:    posts,
		videos:   videos,
		jobs:     jobs,
		queue:    queue,
		executor: executor,
		events:   events,
		composer: composer,
		cadence:  cadence,
		now:      time.Now,
	}
}

// TargetPlatforms implements the batch targeting operation. The result always
// holds exactly one outcome per requested platform, in request order; partial
// failure is a normal result, not an error. Only programming-error-class
// failures (unknown platform, missing video) return a non-nil error.
func (s *TargetingService) TargetPlatforms(
	ctx context.Context,
	videoID uuid.UUID,
	platforms []platform.Platform,
	mode Mode,
	when *time.Time,
	content string,
) ([]models.PerPlatformOutcome, error) {
	if mode != ModeSchedule && mode != ModePublishNow {
		return nil, &ValidationError{Fields: map[string]string{"mode": fmt.Sprintf("unknown mode %q", mode)}}
	}
	if len(platforms) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"platforms": "At least one platform is required"}}
	}

	// Unknown platform keys fail fast before any row or network is touched.
	if _, _, err := platform.Partition(platforms); err != nil {
		return nil, err
	}

	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Video not found"}
		}
		return nil, err
	}

	if content == "" {
		content = s.composer.Default(video)
	}

	// One batch shares one publish moment: derive it once, before any post is
	// committed, so NoSlotAvailable rejects the whole schedule request.
	var slot time.Time
	if mode == ModeSchedule {
		if when != nil {
			slot = *when
		} else {
			occupied, err := s.posts.ListOccupiedSlots(ctx)
			if err != nil {
				return nil, err
			}
			slot, err = scheduler.NextAvailableSlot(s.cadence, occupied, s.now())
			if err != nil {
				return s.rejectAll(platforms, platform.KindNoSlotAvailable, err.Error()), nil
			}
		}
	}

	outcomes := make([]models.PerPlatformOutcome, len(platforms))
	pending := make([]*models.SocialPost, len(platforms))

	for i, p := range platforms {
		switch mode {
		case ModeSchedule:
			outcomes[i] = s.schedule(ctx, video, p, slot, content)
		case ModePublishNow:
			post := &models.SocialPost{
				VideoID:  video.ID,
				Platform: p,
				Content:  content,
				Status:   models.StatusPending,
			}
			if err := s.posts.UpsertTarget(ctx, post); err != nil {
				outcomes[i] = rejectedOutcome(p, err)
				continue
			}
			pending[i] = post
		}
	}

	if mode == ModePublishNow {
		// Per-platform publishes are independent and run concurrently, but
		// the batch result is always awaited in full.
		var wg sync.WaitGroup
		for i, post := range pending {
			if post == nil {
				continue
			}
			wg.Add(1)
			go func(i int, post *models.SocialPost) {
				defer wg.Done()
				outcomes[i] = s.executor.Execute(ctx, post)
			}(i, post)
		}
		wg.Wait()
	}

	return outcomes, nil
}

func (s *TargetingService) schedule(ctx context.Context, video *models.Video, p platform.Platform, at time.Time, content string) models.PerPlatformOutcome {
	if err := models.ValidateScheduleTime(p, at, s.now()); err != nil {
		return rejectedOutcome(p, err)
	}

	post := &models.SocialPost{
		VideoID:     video.ID,
		Platform:    p,
		Content:     content,
		Status:      models.StatusScheduled,
		ScheduledAt: &at,
	}
	if err := s.posts.UpsertTarget(ctx, post); err != nil {
		return rejectedOutcome(p, err)
	}

	metrics.PostsScheduled.Inc()
	if s.events != nil {
		s.events.PublishPostEvent(ctx, models.PostEvent{
			PostID:     post.ID,
			VideoID:    video.ID,
			Platform:   p,
			Status:     models.StatusScheduled,
			OccurredAt: s.now(),
		})
	}

	return models.PerPlatformOutcome{
		Platform:    p,
		Status:      models.OutcomeScheduled,
		PostID:      &post.ID,
		ScheduledAt: &at,
	}
}

// Reschedule replaces the committed timestamp of an existing post in place,
// running the same validation as initial scheduling. An errored post comes
// back as scheduled with its error fields cleared.
func (s *TargetingService) Reschedule(ctx context.Context, postID uuid.UUID, at time.Time) (*models.SocialPost, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Post not found"}
		}
		return nil, err
	}
	if post.Status == models.StatusPublished {
		return nil, platform.NewPublishError(platform.KindAlreadyPublished, "published posts cannot be rescheduled")
	}
	if err := models.ValidateScheduleTime(post.Platform, at, s.now()); err != nil {
		return nil, err
	}
	if err := post.Transition(models.StatusScheduled); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"status": err.Error()}}
	}
	if err := s.posts.UpdateSchedule(ctx, post.ID, at); err != nil {
		return nil, err
	}
	post.ScheduledAt = &at
	post.ErrorKind = ""
	post.ErrorDetail = nil
	return post, nil
}

// ForcePublish bypasses the schedule path for an existing pending, scheduled
// or errored post.
func (s *TargetingService) ForcePublish(ctx context.Context, postID uuid.UUID) (models.PerPlatformOutcome, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PerPlatformOutcome{}, &NotFoundError{Message: "Post not found"}
		}
		return models.PerPlatformOutcome{}, err
	}
	return s.executor.Execute(ctx, post), nil
}

// DispatchDue enqueues one publish job per scheduled post whose time has
// come. The cadence itself lives outside the process; this is the trigger it
// calls.
func (s *TargetingService) DispatchDue(ctx context.Context, userID uuid.UUID) (int, error) {
	due, err := s.posts.ListDue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, post := range due {
		job := &models.Job{
			UserID:      userID,
			Type:        models.JobTypePublishPost,
			ReferenceID: post.ID,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return dispatched, err
		}
		if err := s.queue.Enqueue(ctx, models.QueuePublishPost, job); err != nil {
			return dispatched, err
		}
		dispatched++
	}
	return dispatched, nil
}

func (s *TargetingService) rejectAll(platforms []platform.Platform, kind platform.ErrorKind, detail string) []models.PerPlatformOutcome {
	outcomes := make([]models.PerPlatformOutcome, len(platforms))
	for i, p := range platforms {
		outcomes[i] = models.PerPlatformOutcome{
			Platform:    p,
			Status:      models.OutcomeFailed,
			ErrorKind:   kind,
			ErrorDetail: detail,
		}
	}
	return outcomes
}

func rejectedOutcome(p platform.Platform, err error) models.PerPlatformOutcome {
	pe := platform.Classify(err)
	return models.PerPlatformOutcome{
		Platform:    p,
		Status:      models.OutcomeRejected,
		ErrorKind:   pe.Kind,
		ErrorDetail: pe.Detail,
	}
}
