package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

// In-memory store fakes mirroring the repository semantics.

type fakePostStore struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*models.SocialPost

	// failMarkPublished makes the next N MarkPublished calls fail.
	failMarkPublished  int
	markPublishedCalls int
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[uuid.UUID]*models.SocialPost)}
}

func (s *fakePostStore) byPair(videoID uuid.UUID, p platform.Platform) *models.SocialPost {
	for _, post := range s.posts {
		if post.VideoID == videoID && post.Platform == p {
			return post
		}
	}
	return nil
}

func (s *fakePostStore) UpsertTarget(ctx context.Context, post *models.SocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.byPair(post.VideoID, post.Platform); existing != nil {
		if existing.Status == models.StatusPublished {
			return platform.NewPublishError(platform.KindAlreadyPublished,
				fmt.Sprintf("video already published to %s", post.Platform))
		}
		existing.Content = post.Content
		existing.Status = post.Status
		existing.ScheduledAt = post.ScheduledAt
		existing.ErrorKind = ""
		existing.ErrorDetail = nil
		*post = *existing
		return nil
	}

	post.ID = uuid.New()
	clone := *post
	s.posts[post.ID] = &clone
	return nil
}

func (s *fakePostStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SocialPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *post
	return &clone, nil
}

func (s *fakePostStore) ListOccupiedSlots(ctx context.Context) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for _, post := range s.posts {
		if post.Status == models.StatusScheduled && post.ScheduledAt != nil {
			out = append(out, *post.ScheduledAt)
		}
	}
	return out, nil
}

func (s *fakePostStore) ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.SocialPost
	for _, post := range s.posts {
		if post.Status == models.StatusScheduled && post.ScheduledAt != nil && !post.ScheduledAt.After(now) {
			clone := *post
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *fakePostStore) ListNonDraft(ctx context.Context) ([]models.PostWithVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PostWithVideo
	for _, post := range s.posts {
		if post.Status == models.StatusDraft {
			continue
		}
		out = append(out, models.PostWithVideo{SocialPost: *post})
	}
	return out, nil
}

func (s *fakePostStore) MarkPublished(ctx context.Context, id uuid.UUID, platformPostID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markPublishedCalls++
	if s.failMarkPublished > 0 {
		s.failMarkPublished--
		return errors.New("connection reset by peer")
	}
	post, ok := s.posts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	post.Status = models.StatusPublished
	post.PlatformPostID = &platformPostID
	post.PublishedAt = &at
	return nil
}

func (s *fakePostStore) MarkFailed(ctx context.Context, id uuid.UUID, kind platform.ErrorKind, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	post.Status = models.StatusError
	post.ErrorKind = kind
	post.ErrorDetail = &detail
	post.RetryCount++
	return nil
}

func (s *fakePostStore) UpdateSchedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	post.Status = models.StatusScheduled
	post.ScheduledAt = &at
	post.ErrorKind = ""
	post.ErrorDetail = nil
	return nil
}

type fakeVideoStore struct {
	videos     map[uuid.UUID]*models.Video
	candidates []*models.Video
}

func newFakeVideoStore(videos ...*models.Video) *fakeVideoStore {
	s := &fakeVideoStore{videos: make(map[uuid.UUID]*models.Video)}
	for _, v := range videos {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeVideoStore) Upsert(ctx context.Context, v *models.Video) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	s.videos[v.ID] = v
	return nil
}

func (s *fakeVideoStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, ok := s.videos[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return v, nil
}

func (s *fakeVideoStore) List(ctx context.Context) ([]*models.Video, error) {
	var out []*models.Video
	for _, v := range s.videos {
		out = append(out, v)
	}
	return out, nil
}

func (s *fakeVideoStore) ListAutopilotCandidates(ctx context.Context, platforms []platform.Platform) ([]*models.Video, error) {
	return s.candidates, nil
}

type fakeCredentialStore struct {
	mu    sync.Mutex
	creds map[platform.Platform]*models.PlatformCredential
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{creds: make(map[platform.Platform]*models.PlatformCredential)}
}

func (s *fakeCredentialStore) Get(ctx context.Context, p platform.Platform) (*models.PlatformCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.creds[p]; ok {
		return c, nil
	}
	return &models.PlatformCredential{Platform: p, Status: models.CredentialUnconfigured}, nil
}

func (s *fakeCredentialStore) Upsert(ctx context.Context, c *models.PlatformCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Status = models.CredentialHealthy
	s.creds[c.Platform] = c
	return nil
}

func (s *fakeCredentialStore) MarkStatus(ctx context.Context, p platform.Platform, status models.CredentialStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[p]
	if !ok {
		c = &models.PlatformCredential{Platform: p}
		s.creds[p] = c
	}
	c.Status = status
	return nil
}

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.Job
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[uuid.UUID]*models.Job)}
}

func (s *fakeJobStore) Create(ctx context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = uuid.New()
	j.Status = "pending"
	j.MaxRetries = 3
	s.jobs[j.ID] = j
	return nil
}

func (s *fakeJobStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return j, nil
}

func (s *fakeJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = status
	}
	return nil
}

func (s *fakeJobStore) UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.ErrorMessage = &errMsg
		j.RetryCount = retryCount
	}
	return nil
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	entries []string
}

func (q *fakeEnqueuer) Enqueue(ctx context.Context, queue string, job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, queue)
	return nil
}

type fakeEventSink struct {
	mu     sync.Mutex
	events []models.PostEvent
}

func (e *fakeEventSink) PublishPostEvent(ctx context.Context, ev models.PostEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

// fakeExecutor scripts one outcome per platform.
type fakeExecutor struct {
	mu       sync.Mutex
	results  map[platform.Platform]models.PerPlatformOutcome
	executed []platform.Platform
}

func (e *fakeExecutor) Execute(ctx context.Context, post *models.SocialPost) models.PerPlatformOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, post.Platform)

	if out, ok := e.results[post.Platform]; ok {
		out.Platform = post.Platform
		out.PostID = &post.ID
		return out
	}
	return models.PerPlatformOutcome{
		Platform: post.Platform,
		Status:   models.OutcomePublished,
		PostID:   &post.ID,
	}
}

// fakeAdapter scripts the platform boundary for executor tests.
type fakeAdapter struct {
	name    platform.Platform
	result  platform.PublishResult
	err     error
	calls   int
	lastReq platform.PublishRequest
}

func (a *fakeAdapter) Name() platform.Platform { return a.name }

func (a *fakeAdapter) Publish(ctx context.Context, req platform.PublishRequest) (platform.PublishResult, error) {
	a.calls++
	a.lastReq = req
	return a.result, a.err
}
