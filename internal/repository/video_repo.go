package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

// Upsert keys on the immutable external id so re-running an ingest refreshes
// metadata instead of duplicating the library.
func (r *VideoRepo) Upsert(ctx context.Context, v *models.Video) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	query := `INSERT INTO videos (id, external_id, title, description, tags, group_id, canonical_url, thumbnail_url, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			group_id = EXCLUDED.group_id,
			canonical_url = EXCLUDED.canonical_url,
			thumbnail_url = EXCLUDED.thumbnail_url,
			published_at = EXCLUDED.published_at
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		v.ID, v.ExternalID, v.Title, v.Description, v.Tags, v.GroupID,
		v.CanonicalURL, v.ThumbnailURL, v.PublishedAt,
	).Scan(&v.ID, &v.CreatedAt)
}

func (r *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v := &models.Video{}
	query := `SELECT id, external_id, title, description, tags, group_id, canonical_url, thumbnail_url, published_at, created_at
		FROM videos WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ExternalID, &v.Title, &v.Description, &v.Tags, &v.GroupID,
		&v.CanonicalURL, &v.ThumbnailURL, &v.PublishedAt, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VideoRepo) List(ctx context.Context) ([]*models.Video, error) {
	query := `SELECT id, external_id, title, description, tags, group_id, canonical_url, thumbnail_url, published_at, created_at
		FROM videos ORDER BY published_at DESC, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v := &models.Video{}
		if err := rows.Scan(
			&v.ID, &v.ExternalID, &v.Title, &v.Description, &v.Tags, &v.GroupID,
			&v.CanonicalURL, &v.ThumbnailURL, &v.PublishedAt, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ListAutopilotCandidates returns, per content group, the most recently
// published video that has no live or published post on any of the given
// platforms. Ordering is fully specified so repeated runs pick the same
// videos.
func (r *VideoRepo) ListAutopilotCandidates(ctx context.Context, platforms []platform.Platform) ([]*models.Video, error) {
	keys := make([]string, len(platforms))
	for i, p := range platforms {
		keys[i] = string(p)
	}

	query := `SELECT DISTINCT ON (v.group_id)
			v.id, v.external_id, v.title, v.description, v.tags, v.group_id,
			v.canonical_url, v.thumbnail_url, v.published_at, v.created_at
		FROM videos v
		WHERE NOT EXISTS (
			SELECT 1 FROM social_posts p
			WHERE p.video_id = v.id
			  AND p.platform = ANY($1)
			  AND p.status <> 'error'
		)
		ORDER BY v.group_id, v.published_at DESC, v.id`

	rows, err := r.pool.Query(ctx, query, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v := &models.Video{}
		if err := rows.Scan(
			&v.ID, &v.ExternalID, &v.Title, &v.Description, &v.Tags, &v.GroupID,
			&v.CanonicalURL, &v.ThumbnailURL, &v.PublishedAt, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
