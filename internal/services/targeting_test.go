package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
	"crosspost-backend/internal/scheduler"
)

var testCadence = scheduler.Cadence{
	Weekday:  time.Wednesday,
	Hour:     23,
	Minute:   0,
	Location: time.UTC,
}

// Monday before the Wednesday slot.
var testNow = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func newTargetingFixture(t *testing.T, video *models.Video) (*TargetingService, *fakePostStore, *fakeExecutor, *fakeJobStore, *fakeEnqueuer) {
	t.Helper()

	posts := newFakePostStore()
	videos := newFakeVideoStore(video)
	jobs := newFakeJobStore()
	queue := &fakeEnqueuer{}
	executor := &fakeExecutor{}
	events := &fakeEventSink{}

	svc := NewTargetingService(posts, videos, jobs, queue, executor, events, &Composer{}, testCadence)
	svc.now = func() time.Time { return testNow }
	return svc, posts, executor, jobs, queue
}

func testVideo() *models.Video {
	return &models.Video{
		ID:           uuid.New(),
		ExternalID:   "dQw4w9WgXcQ",
		Title:        "Weekly devlog #12",
		Description:  "What changed this week.\nMore below.",
		Tags:         []string{"devlog", "golang"},
		CanonicalURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
}

func TestTargetPlatforms_ScheduleMixedCapabilities(t *testing.T) {
	video := testVideo()
	svc, _, executor, _, _ := newTargetingFixture(t, video)

	requested := []platform.Platform{platform.YouTube, platform.Instagram, platform.Facebook}
	outcomes, err := svc.TargetPlatforms(context.Background(), video.ID, requested, ModeSchedule, nil, "caption")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(outcomes) != len(requested) {
		t.Fatalf("Expected %d outcomes, got %d", len(requested), len(outcomes))
	}
	for i, o := range outcomes {
		if o.Platform != requested[i] {
			t.Errorf("Outcome %d: expected platform %s, got %s", i, requested[i], o.Platform)
		}
	}

	wantSlot := time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC)
	if outcomes[0].Status != models.OutcomeScheduled || !outcomes[0].ScheduledAt.Equal(wantSlot) {
		t.Errorf("youtube: expected scheduled at %s, got %+v", wantSlot, outcomes[0])
	}
	if outcomes[2].Status != models.OutcomeScheduled || !outcomes[2].ScheduledAt.Equal(wantSlot) {
		t.Errorf("facebook: expected scheduled at %s, got %+v", wantSlot, outcomes[2])
	}

	// Immediate-only platform gets rejected in schedule mode, and the
	// executor is never consulted.
	if outcomes[1].Status != models.OutcomeRejected || outcomes[1].ErrorKind != platform.KindSchedulingUnsupported {
		t.Errorf("instagram: expected rejected scheduling_unsupported, got %+v", outcomes[1])
	}
	if len(executor.executed) != 0 {
		t.Errorf("Schedule mode must not publish, executor ran for %v", executor.executed)
	}
}

func TestTargetPlatforms_InvalidPlatformFailsFast(t *testing.T) {
	video := testVideo()
	svc, posts, _, _, _ := newTargetingFixture(t, video)

	_, err := svc.TargetPlatforms(context.Background(), video.ID,
		[]platform.Platform{platform.YouTube, "myspace"}, ModeSchedule, nil, "")
	if !errors.Is(err, platform.ErrInvalidPlatform) {
		t.Fatalf("Expected ErrInvalidPlatform, got %v", err)
	}
	if len(posts.posts) != 0 {
		t.Error("No post rows should be written when the batch fails fast")
	}
}

func TestTargetPlatforms_UnknownVideo(t *testing.T) {
	svc, _, _, _, _ := newTargetingFixture(t, testVideo())

	_, err := svc.TargetPlatforms(context.Background(), uuid.New(),
		[]platform.Platform{platform.YouTube}, ModeSchedule, nil, "")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestTargetPlatforms_PastTimestampRejected(t *testing.T) {
	video := testVideo()
	svc, _, _, _, _ := newTargetingFixture(t, video)

	past := testNow.Add(-time.Hour)
	outcomes, err := svc.TargetPlatforms(context.Background(), video.ID,
		[]platform.Platform{platform.YouTube}, ModeSchedule, &past, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if outcomes[0].Status != models.OutcomeRejected || outcomes[0].ErrorKind != platform.KindInvalidTimestamp {
		t.Errorf("Expected rejected invalid_timestamp, got %+v", outcomes[0])
	}
}

func TestTargetPlatforms_NoSlotAvailable(t *testing.T) {
	video := testVideo()
	svc, posts, _, _, _ := newTargetingFixture(t, video)
	svc.cadence.HorizonWeeks = 1

	// Occupy the only occurrence inside the horizon.
	slot := time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC)
	other := testVideo()
	other.ID = uuid.New()
	posts.UpsertTarget(context.Background(), &models.SocialPost{
		VideoID:     other.ID,
		Platform:    platform.YouTube,
		Status:      models.StatusScheduled,
		ScheduledAt: &slot,
	})

	outcomes, err := svc.TargetPlatforms(context.Background(), video.ID,
		[]platform.Platform{platform.YouTube, platform.Facebook}, ModeSchedule, nil, "")
	if err != nil {
		t.Fatalf("Slot exhaustion is a per-platform outcome, not an error: %v", err)
	}

	for _, o := range outcomes {
		if o.Status != models.OutcomeFailed || o.ErrorKind != platform.KindNoSlotAvailable {
			t.Errorf("Expected failed no_slot_available, got %+v", o)
		}
	}
}

func TestTargetPlatforms_PublishNowPartialFailure(t *testing.T) {
	video := testVideo()
	svc, _, executor, _, _ := newTargetingFixture(t, video)
	executor.results = map[platform.Platform]models.PerPlatformOutcome{
		platform.LinkedIn: {
			Status:      models.OutcomeFailed,
			ErrorKind:   platform.KindTokenExpired,
			ErrorDetail: "linkedin is not authenticated",
		},
	}

	requested := []platform.Platform{platform.YouTube, platform.LinkedIn}
	outcomes, err := svc.TargetPlatforms(context.Background(), video.ID, requested, ModePublishNow, nil, "caption")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if outcomes[0].Platform != platform.YouTube || outcomes[0].Status != models.OutcomePublished {
		t.Errorf("youtube: expected published, got %+v", outcomes[0])
	}
	if outcomes[1].Platform != platform.LinkedIn || outcomes[1].Status != models.OutcomeFailed ||
		outcomes[1].ErrorKind != platform.KindTokenExpired {
		t.Errorf("linkedin: expected failed token_expired, got %+v", outcomes[1])
	}
	if len(executor.executed) != 2 {
		t.Errorf("Expected 2 publish attempts, got %d", len(executor.executed))
	}
}

func TestTargetPlatforms_RepublishRejected(t *testing.T) {
	video := testVideo()
	svc, posts, _, _, _ := newTargetingFixture(t, video)

	existing := &models.SocialPost{
		VideoID:  video.ID,
		Platform: platform.YouTube,
		Status:   models.StatusPending,
	}
	posts.UpsertTarget(context.Background(), existing)
	posts.MarkPublished(context.Background(), existing.ID, "yt-123", testNow)

	outcomes, err := svc.TargetPlatforms(context.Background(), video.ID,
		[]platform.Platform{platform.YouTube}, ModePublishNow, nil, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if outcomes[0].Status != models.OutcomeRejected || outcomes[0].ErrorKind != platform.KindAlreadyPublished {
		t.Errorf("Expected rejected already_published, got %+v", outcomes[0])
	}
}

func TestTargetPlatforms_RetargetingMutatesSingleRow(t *testing.T) {
	video := testVideo()
	svc, posts, _, _, _ := newTargetingFixture(t, video)

	first := time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC)
	out1, err := svc.TargetPlatforms(context.Background(), video.ID,
		[]platform.Platform{platform.YouTube}, ModeSchedule, &first, "take one")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	second := first.AddDate(0, 0, 7)
	out2, err := svc.TargetPlatforms(context.Background(), video.ID,
		[]platform.Platform{platform.YouTube}, ModeSchedule, &second, "take two")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(posts.posts) != 1 {
		t.Fatalf("Re-targeting the same pair must mutate one row, got %d", len(posts.posts))
	}
	if out1[0].PostID == nil || out2[0].PostID == nil || *out1[0].PostID != *out2[0].PostID {
		t.Errorf("Post ID should be stable across re-targeting: %v vs %v", out1[0].PostID, out2[0].PostID)
	}

	stored := posts.byPair(video.ID, platform.YouTube)
	if !stored.ScheduledAt.Equal(second) {
		t.Errorf("Expected updated slot %s, got %s", second, stored.ScheduledAt)
	}
	if stored.Content != "take two" {
		t.Errorf("Expected updated content, got %q", stored.Content)
	}
}

func TestReschedule(t *testing.T) {
	video := testVideo()
	svc, posts, _, _, _ := newTargetingFixture(t, video)

	slot := time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC)
	post := &models.SocialPost{
		VideoID:     video.ID,
		Platform:    platform.Facebook,
		Status:      models.StatusScheduled,
		ScheduledAt: &slot,
	}
	posts.UpsertTarget(context.Background(), post)

	newSlot := slot.AddDate(0, 0, 7)
	updated, err := svc.Reschedule(context.Background(), post.ID, newSlot)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !updated.ScheduledAt.Equal(newSlot) {
		t.Errorf("Expected new slot %s, got %s", newSlot, updated.ScheduledAt)
	}
}

func TestReschedule_ErroredPostRetries(t *testing.T) {
	video := testVideo()
	svc, posts, _, _, _ := newTargetingFixture(t, video)

	slot := time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC)
	post := &models.SocialPost{
		VideoID:     video.ID,
		Platform:    platform.YouTube,
		Status:      models.StatusScheduled,
		ScheduledAt: &slot,
	}
	posts.UpsertTarget(context.Background(), post)
	posts.MarkFailed(context.Background(), post.ID, platform.KindNetworkError, "connection reset")

	newSlot := slot.AddDate(0, 0, 7)
	updated, err := svc.Reschedule(context.Background(), post.ID, newSlot)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if updated.Status != models.StatusScheduled {
		t.Errorf("Returned post should be scheduled, got %s", updated.Status)
	}
	if updated.ErrorKind != "" || updated.ErrorDetail != nil {
		t.Errorf("Returned post should carry no error fields: %+v", updated)
	}

	stored, _ := posts.GetByID(context.Background(), post.ID)
	if stored.Status != updated.Status {
		t.Errorf("Stored status %s disagrees with returned status %s", stored.Status, updated.Status)
	}
	if stored.ErrorKind != "" || stored.ErrorDetail != nil {
		t.Errorf("Stored post should carry no error fields: %+v", stored)
	}
	if !stored.ScheduledAt.Equal(newSlot) {
		t.Errorf("Expected stored slot %s, got %s", newSlot, stored.ScheduledAt)
	}
}

func TestReschedule_PublishedPost(t *testing.T) {
	video := testVideo()
	svc, posts, _, _, _ := newTargetingFixture(t, video)

	post := &models.SocialPost{VideoID: video.ID, Platform: platform.YouTube, Status: models.StatusPending}
	posts.UpsertTarget(context.Background(), post)
	posts.MarkPublished(context.Background(), post.ID, "yt-1", testNow)

	_, err := svc.Reschedule(context.Background(), post.ID, testNow.Add(time.Hour))
	var pe *platform.PublishError
	if !errors.As(err, &pe) || pe.Kind != platform.KindAlreadyPublished {
		t.Errorf("Expected already_published, got %v", err)
	}
}

func TestDispatchDue(t *testing.T) {
	video := testVideo()
	svc, posts, _, jobs, queue := newTargetingFixture(t, video)

	due := testNow.Add(-time.Hour)
	notYet := testNow.Add(time.Hour)
	posts.UpsertTarget(context.Background(), &models.SocialPost{
		VideoID: video.ID, Platform: platform.YouTube, Status: models.StatusScheduled, ScheduledAt: &due,
	})
	posts.UpsertTarget(context.Background(), &models.SocialPost{
		VideoID: video.ID, Platform: platform.Facebook, Status: models.StatusScheduled, ScheduledAt: &notYet,
	})

	dispatched, err := svc.DispatchDue(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dispatched != 1 {
		t.Errorf("Expected 1 dispatched job, got %d", dispatched)
	}
	if len(jobs.jobs) != 1 {
		t.Errorf("Expected 1 job row, got %d", len(jobs.jobs))
	}
	if len(queue.entries) != 1 || queue.entries[0] != models.QueuePublishPost {
		t.Errorf("Expected 1 enqueue on %s, got %v", models.QueuePublishPost, queue.entries)
	}
}

func TestAutopilot_Run(t *testing.T) {
	videoA := testVideo()
	videoB := testVideo()
	videoB.ID = uuid.New()
	videoB.ExternalID = "other"

	posts := newFakePostStore()
	videos := newFakeVideoStore(videoA, videoB)
	videos.candidates = []*models.Video{videoA, videoB}

	targeting := NewTargetingService(posts, videos, newFakeJobStore(), &fakeEnqueuer{},
		&fakeExecutor{}, &fakeEventSink{}, &Composer{}, testCadence)
	targeting.now = func() time.Time { return testNow }

	autopilot := NewAutopilotService(videos, targeting, &Composer{},
		[]platform.Platform{platform.YouTube, platform.Facebook})

	report, err := autopilot.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.VideosSelected != 2 {
		t.Errorf("Expected 2 videos selected, got %d", report.VideosSelected)
	}
	if report.PostsScheduled != 4 {
		t.Errorf("Expected 4 posts scheduled, got %d", report.PostsScheduled)
	}
	if len(report.Outcomes) != 4 {
		t.Errorf("Expected 4 outcomes, got %d", len(report.Outcomes))
	}
}
