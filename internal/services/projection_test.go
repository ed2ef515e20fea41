package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

func seedProjectionPosts(t *testing.T, posts *fakePostStore) (early, late time.Time) {
	t.Helper()
	ctx := context.Background()
	videoID := uuid.New()

	early = time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC)
	late = early.AddDate(0, 0, 7)

	// Insert the later slot first so bucket ordering is observable.
	posts.UpsertTarget(ctx, &models.SocialPost{
		VideoID: videoID, Platform: platform.Facebook,
		Status: models.StatusScheduled, ScheduledAt: &late,
	})
	posts.UpsertTarget(ctx, &models.SocialPost{
		VideoID: videoID, Platform: platform.YouTube,
		Status: models.StatusScheduled, ScheduledAt: &early,
	})
	posts.UpsertTarget(ctx, &models.SocialPost{
		VideoID: videoID, Platform: platform.LinkedIn,
		Status: models.StatusPending,
	})

	errored := &models.SocialPost{VideoID: videoID, Platform: platform.Instagram, Status: models.StatusPending}
	posts.UpsertTarget(ctx, errored)
	posts.MarkFailed(ctx, errored.ID, platform.KindNetworkError, "timeout")
	return early, late
}

func TestQueue_Buckets(t *testing.T) {
	posts := newFakePostStore()
	early, late := seedProjectionPosts(t, posts)

	svc := NewProjectionService(posts, time.UTC)
	view, err := svc.Queue(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(view.Pending) != 1 || len(view.Scheduled) != 2 || len(view.Published) != 0 || len(view.Errored) != 1 {
		t.Fatalf("Unexpected bucket sizes: pending=%d scheduled=%d published=%d errored=%d",
			len(view.Pending), len(view.Scheduled), len(view.Published), len(view.Errored))
	}

	if !view.Scheduled[0].ScheduledAt.Equal(early) || !view.Scheduled[1].ScheduledAt.Equal(late) {
		t.Errorf("Scheduled bucket not ascending: %v then %v",
			view.Scheduled[0].ScheduledAt, view.Scheduled[1].ScheduledAt)
	}
}

func TestCalendar_GroupsByDate(t *testing.T) {
	posts := newFakePostStore()
	early, late := seedProjectionPosts(t, posts)

	svc := NewProjectionService(posts, time.UTC)
	days, err := svc.Calendar(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Pending and errored posts carry no timestamp and stay off the calendar.
	if len(days) != 2 {
		t.Fatalf("Expected 2 calendar days, got %d", len(days))
	}
	if days[0].Date != early.Format("2006-01-02") || days[1].Date != late.Format("2006-01-02") {
		t.Errorf("Days not ascending: %s, %s", days[0].Date, days[1].Date)
	}
	if len(days[0].Posts) != 1 || len(days[1].Posts) != 1 {
		t.Errorf("Unexpected posts per day: %d, %d", len(days[0].Posts), len(days[1].Posts))
	}
}

func TestCalendar_TimezoneBoundary(t *testing.T) {
	posts := newFakePostStore()
	ctx := context.Background()

	// 23:00 UTC Wednesday is already Thursday in UTC+2.
	slot := time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC)
	posts.UpsertTarget(ctx, &models.SocialPost{
		VideoID: uuid.New(), Platform: platform.YouTube,
		Status: models.StatusScheduled, ScheduledAt: &slot,
	})

	svc := NewProjectionService(posts, time.FixedZone("EET", 2*3600))
	days, err := svc.Calendar(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(days) != 1 || days[0].Date != "2026-01-08" {
		t.Errorf("Expected date 2026-01-08 in EET, got %+v", days)
	}
}
