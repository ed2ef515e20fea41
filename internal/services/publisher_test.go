package services

import (
	"context"
	"testing"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

func newExecutorFixture(t *testing.T, video *models.Video, adapter *fakeAdapter) (*PublishExecutor, *fakePostStore, *fakeCredentialStore, *fakeEventSink) {
	t.Helper()

	posts := newFakePostStore()
	videos := newFakeVideoStore(video)
	creds := newFakeCredentialStore()
	events := &fakeEventSink{}

	adapters := map[platform.Platform]platform.Adapter{}
	if adapter != nil {
		adapters[adapter.name] = adapter
	}

	exec := NewPublishExecutor(adapters, posts, videos, creds, events, nil)
	return exec, posts, creds, events
}

func TestExecute_Success(t *testing.T) {
	video := testVideo()
	adapter := &fakeAdapter{name: platform.YouTube, result: platform.PublishResult{PlatformPostID: "yt-42"}}
	exec, posts, _, events := newExecutorFixture(t, video, adapter)

	post := &models.SocialPost{VideoID: video.ID, Platform: platform.YouTube, Status: models.StatusPending, Content: "caption"}
	posts.UpsertTarget(context.Background(), post)

	outcome := exec.Execute(context.Background(), post)

	if outcome.Status != models.OutcomePublished {
		t.Fatalf("Expected published, got %+v", outcome)
	}
	if outcome.PlatformPostID == nil || *outcome.PlatformPostID != "yt-42" {
		t.Errorf("Expected platform post id yt-42, got %v", outcome.PlatformPostID)
	}
	if adapter.calls != 1 {
		t.Errorf("Expected 1 adapter call, got %d", adapter.calls)
	}
	if adapter.lastReq.VideoURL != video.CanonicalURL || adapter.lastReq.Content != "caption" {
		t.Errorf("Adapter request not built from post and video: %+v", adapter.lastReq)
	}

	stored, _ := posts.GetByID(context.Background(), post.ID)
	if stored.Status != models.StatusPublished || stored.PublishedAt == nil {
		t.Errorf("Post not persisted as published: %+v", stored)
	}
	if len(events.events) != 1 || events.events[0].Status != models.StatusPublished {
		t.Errorf("Expected one published event, got %+v", events.events)
	}
}

func TestExecute_TokenExpiredMarksCredential(t *testing.T) {
	video := testVideo()
	adapter := &fakeAdapter{
		name: platform.LinkedIn,
		err:  platform.NewPublishError(platform.KindTokenExpired, "token revoked"),
	}
	exec, posts, creds, _ := newExecutorFixture(t, video, adapter)

	post := &models.SocialPost{VideoID: video.ID, Platform: platform.LinkedIn, Status: models.StatusPending}
	posts.UpsertTarget(context.Background(), post)

	outcome := exec.Execute(context.Background(), post)

	if outcome.Status != models.OutcomeFailed || outcome.ErrorKind != platform.KindTokenExpired {
		t.Fatalf("Expected failed token_expired, got %+v", outcome)
	}

	stored, _ := posts.GetByID(context.Background(), post.ID)
	if stored.Status != models.StatusError || stored.RetryCount != 1 {
		t.Errorf("Post not persisted as errored with retry count: %+v", stored)
	}

	cred, _ := creds.Get(context.Background(), platform.LinkedIn)
	if cred.Status != models.CredentialExpired {
		t.Errorf("Expected credential marked expired, got %s", cred.Status)
	}
}

func TestExecute_PersistFailureRetriedOnce(t *testing.T) {
	video := testVideo()
	adapter := &fakeAdapter{name: platform.YouTube, result: platform.PublishResult{PlatformPostID: "yt-7"}}
	exec, posts, _, _ := newExecutorFixture(t, video, adapter)

	post := &models.SocialPost{VideoID: video.ID, Platform: platform.YouTube, Status: models.StatusPending}
	posts.UpsertTarget(context.Background(), post)
	posts.failMarkPublished = 1

	outcome := exec.Execute(context.Background(), post)

	if outcome.Status != models.OutcomePublished || outcome.ErrorDetail != "" {
		t.Fatalf("Retried write should yield a clean published outcome, got %+v", outcome)
	}
	if posts.markPublishedCalls != 2 {
		t.Errorf("Expected 2 MarkPublished calls, got %d", posts.markPublishedCalls)
	}
	stored, _ := posts.GetByID(context.Background(), post.ID)
	if stored.Status != models.StatusPublished {
		t.Errorf("Post not persisted as published: %+v", stored)
	}
}

func TestExecute_PersistFailureSurfacedOnOutcome(t *testing.T) {
	video := testVideo()
	adapter := &fakeAdapter{name: platform.YouTube, result: platform.PublishResult{PlatformPostID: "yt-7"}}
	exec, posts, _, _ := newExecutorFixture(t, video, adapter)

	post := &models.SocialPost{VideoID: video.ID, Platform: platform.YouTube, Status: models.StatusPending}
	posts.UpsertTarget(context.Background(), post)
	posts.failMarkPublished = 2

	outcome := exec.Execute(context.Background(), post)

	// The platform post went out, so the outcome stays published, but the
	// unrecorded write is visible to the caller.
	if outcome.Status != models.OutcomePublished {
		t.Fatalf("Expected published, got %+v", outcome)
	}
	if outcome.ErrorDetail == "" {
		t.Error("Expected the persistence failure surfaced in the outcome detail")
	}
	if adapter.calls != 1 {
		t.Errorf("Persistence retries must not re-post, got %d adapter calls", adapter.calls)
	}
}

func TestExecute_AlreadyPublishedGuard(t *testing.T) {
	video := testVideo()
	adapter := &fakeAdapter{name: platform.YouTube, result: platform.PublishResult{PlatformPostID: "yt-1"}}
	exec, posts, _, _ := newExecutorFixture(t, video, adapter)

	post := &models.SocialPost{VideoID: video.ID, Platform: platform.YouTube, Status: models.StatusPending}
	posts.UpsertTarget(context.Background(), post)
	posts.MarkPublished(context.Background(), post.ID, "yt-1", testNow)
	post.Status = models.StatusPublished

	outcome := exec.Execute(context.Background(), post)

	if outcome.Status != models.OutcomeRejected || outcome.ErrorKind != platform.KindAlreadyPublished {
		t.Fatalf("Expected rejected already_published, got %+v", outcome)
	}
	if adapter.calls != 0 {
		t.Errorf("Adapter must not run for a published post, got %d calls", adapter.calls)
	}
}

func TestExecute_MissingAdapter(t *testing.T) {
	video := testVideo()
	exec, posts, _, _ := newExecutorFixture(t, video, nil)

	post := &models.SocialPost{VideoID: video.ID, Platform: platform.Facebook, Status: models.StatusPending}
	posts.UpsertTarget(context.Background(), post)

	outcome := exec.Execute(context.Background(), post)
	if outcome.Status != models.OutcomeFailed || outcome.ErrorKind != platform.KindPlatformRejected {
		t.Errorf("Expected failed platform_rejected, got %+v", outcome)
	}
}
