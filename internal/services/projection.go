package services

import (
	"context"
	"sort"
	"time"

	"crosspost-backend/internal/models"
)

// ProjectionService builds the read-side views. Pure grouping and sorting
// over the persisted rows: no caching, no invalidation, no business rules.
type ProjectionService struct {
	posts    PostStore
	location *time.Location
}

func NewProjectionService(posts PostStore, location *time.Location) *ProjectionService {
	if location == nil {
		location = time.UTC
	}
	return &ProjectionService{posts: posts, location: location}
}

// Queue groups all non-draft posts into lifecycle buckets. Scheduled and
// published come back ascending by their timestamp.
func (s *ProjectionService) Queue(ctx context.Context) (*models.QueueView, error) {
	rows, err := s.posts.ListNonDraft(ctx)
	if err != nil {
		return nil, err
	}

	view := &models.QueueView{
		Pending:   []models.PostWithVideo{},
		Scheduled: []models.PostWithVideo{},
		Published: []models.PostWithVideo{},
		Errored:   []models.PostWithVideo{},
	}
	for _, row := range rows {
		switch row.Status {
		case models.StatusPending:
			view.Pending = append(view.Pending, row)
		case models.StatusScheduled:
			view.Scheduled = append(view.Scheduled, row)
		case models.StatusPublished:
			view.Published = append(view.Published, row)
		case models.StatusError:
			view.Errored = append(view.Errored, row)
		}
	}

	sort.SliceStable(view.Scheduled, func(i, j int) bool {
		return timestampOf(view.Scheduled[i]).Before(timestampOf(view.Scheduled[j]))
	})
	sort.SliceStable(view.Published, func(i, j int) bool {
		return timestampOf(view.Published[i]).Before(timestampOf(view.Published[j]))
	})
	return view, nil
}

// Calendar groups non-draft posts by calendar date in the cadence timezone,
// days ascending, posts within a day ascending.
func (s *ProjectionService) Calendar(ctx context.Context) ([]models.CalendarDay, error) {
	rows, err := s.posts.ListNonDraft(ctx)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]models.PostWithVideo)
	for _, row := range rows {
		t := timestampOf(row)
		if t.IsZero() {
			continue // pending posts have no calendar position yet
		}
		key := t.In(s.location).Format("2006-01-02")
		byDate[key] = append(byDate[key], row)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	days := make([]models.CalendarDay, 0, len(dates))
	for _, d := range dates {
		posts := byDate[d]
		sort.SliceStable(posts, func(i, j int) bool {
			return timestampOf(posts[i]).Before(timestampOf(posts[j]))
		})
		days = append(days, models.CalendarDay{Date: d, Posts: posts})
	}
	return days, nil
}

func timestampOf(p models.PostWithVideo) time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	if p.ScheduledAt != nil {
		return *p.ScheduledAt
	}
	return time.Time{}
}
