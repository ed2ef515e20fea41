package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

const postColumns = `id, video_id, platform, content, status, scheduled_at, published_at,
	platform_post_id, error_kind, error_detail, retry_count, created_at, updated_at`

func scanPost(row pgx.Row) (*models.SocialPost, error) {
	p := &models.SocialPost{}
	var errorKind *string
	err := row.Scan(
		&p.ID, &p.VideoID, &p.Platform, &p.Content, &p.Status, &p.ScheduledAt,
		&p.PublishedAt, &p.PlatformPostID, &errorKind, &p.ErrorDetail,
		&p.RetryCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if errorKind != nil {
		p.ErrorKind = platform.ErrorKind(*errorKind)
	}
	return p, nil
}

// UpsertTarget creates or updates the single row for (video, platform) inside
// one transaction. The row lock serializes concurrent targeting of the same
// pair, which is what keeps the one-live-post invariant across process
// restarts. Re-targeting a published pair is refused: the state machine has
// no exit from published.
func (r *PostRepo) UpsertTarget(ctx context.Context, post *models.SocialPost) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	existing, err := scanPost(tx.QueryRow(ctx,
		"SELECT "+postColumns+" FROM social_posts WHERE video_id = $1 AND platform = $2 FOR UPDATE",
		post.VideoID, post.Platform,
	))

	switch {
	case err == nil:
		if existing.Status == models.StatusPublished {
			return platform.NewPublishError(platform.KindAlreadyPublished,
				fmt.Sprintf("video already published to %s", post.Platform))
		}
		post.ID = existing.ID
		post.CreatedAt = existing.CreatedAt
		post.RetryCount = existing.RetryCount
		_, err = tx.Exec(ctx,
			`UPDATE social_posts
			 SET content = $1, status = $2, scheduled_at = $3, error_kind = NULL, error_detail = NULL, updated_at = NOW()
			 WHERE id = $4`,
			post.Content, post.Status, post.ScheduledAt, post.ID,
		)
		if err != nil {
			return err
		}
	case errors.Is(err, pgx.ErrNoRows):
		post.ID = uuid.New()
		err = tx.QueryRow(ctx,
			`INSERT INTO social_posts (id, video_id, platform, content, status, scheduled_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at, updated_at`,
			post.ID, post.VideoID, post.Platform, post.Content, post.Status, post.ScheduledAt,
		).Scan(&post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return err
		}
	default:
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SocialPost, error) {
	return scanPost(r.pool.QueryRow(ctx,
		"SELECT "+postColumns+" FROM social_posts WHERE id = $1", id,
	))
}

func (r *PostRepo) GetByPair(ctx context.Context, videoID uuid.UUID, p platform.Platform) (*models.SocialPost, error) {
	return scanPost(r.pool.QueryRow(ctx,
		"SELECT "+postColumns+" FROM social_posts WHERE video_id = $1 AND platform = $2", videoID, p,
	))
}

// ListOccupiedSlots returns the timestamps currently committed by scheduled
// posts, ordered for deterministic allocation.
func (r *PostRepo) ListOccupiedSlots(ctx context.Context) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT scheduled_at FROM social_posts WHERE status = 'scheduled' AND scheduled_at IS NOT NULL ORDER BY scheduled_at",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		slots = append(slots, t)
	}
	return slots, rows.Err()
}

// ListDue returns scheduled posts whose timestamp has passed, for the
// dispatch trigger.
func (r *PostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+postColumns+" FROM social_posts WHERE status = 'scheduled' AND scheduled_at <= $1 ORDER BY scheduled_at, id",
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.SocialPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListNonDraft feeds the queue/calendar projections with display fields
// resolved from the video.
func (r *PostRepo) ListNonDraft(ctx context.Context) ([]models.PostWithVideo, error) {
	query := `SELECT p.id, p.video_id, p.platform, p.content, p.status, p.scheduled_at, p.published_at,
			p.platform_post_id, p.error_kind, p.error_detail, p.retry_count, p.created_at, p.updated_at,
			v.title, v.external_id, v.canonical_url, v.thumbnail_url
		FROM social_posts p
		JOIN videos v ON v.id = p.video_id
		WHERE p.status <> 'draft'
		ORDER BY COALESCE(p.published_at, p.scheduled_at, p.created_at), p.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.PostWithVideo
	for rows.Next() {
		var pw models.PostWithVideo
		var errorKind *string
		if err := rows.Scan(
			&pw.ID, &pw.VideoID, &pw.Platform, &pw.Content, &pw.Status, &pw.ScheduledAt,
			&pw.PublishedAt, &pw.PlatformPostID, &errorKind, &pw.ErrorDetail,
			&pw.RetryCount, &pw.CreatedAt, &pw.UpdatedAt,
			&pw.VideoTitle, &pw.VideoExternalID, &pw.VideoURL, &pw.VideoThumbnailURL,
		); err != nil {
			return nil, err
		}
		if errorKind != nil {
			pw.ErrorKind = platform.ErrorKind(*errorKind)
		}
		posts = append(posts, pw)
	}
	return posts, rows.Err()
}

// MarkPublished records a successful executor outcome.
func (r *PostRepo) MarkPublished(ctx context.Context, id uuid.UUID, platformPostID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE social_posts
		 SET status = 'published', platform_post_id = $1, published_at = $2,
		     error_kind = NULL, error_detail = NULL, updated_at = NOW()
		 WHERE id = $3`,
		platformPostID, at, id,
	)
	return err
}

// MarkFailed records a classified executor failure and bumps the attempt
// counter.
func (r *PostRepo) MarkFailed(ctx context.Context, id uuid.UUID, kind platform.ErrorKind, detail string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE social_posts
		 SET status = 'error', error_kind = $1, error_detail = $2,
		     retry_count = retry_count + 1, updated_at = NOW()
		 WHERE id = $3`,
		string(kind), detail, id,
	)
	return err
}

// UpdateSchedule replaces the committed timestamp in place (reschedule edit).
// Rescheduling an errored post is a retry, so the error columns are cleared
// along with the status change.
func (r *PostRepo) UpdateSchedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE social_posts
		 SET scheduled_at = $1, status = 'scheduled', error_kind = NULL, error_detail = NULL, updated_at = NOW()
		 WHERE id = $2 AND status IN ('pending', 'scheduled', 'error')`,
		at, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
