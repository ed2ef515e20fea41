package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

type CredentialRepo struct {
	pool *pgxpool.Pool
}

func NewCredentialRepo(pool *pgxpool.Pool) *CredentialRepo {
	return &CredentialRepo{pool: pool}
}

// Get returns the stored credential for a platform. A missing row reads as
// unconfigured rather than an error so callers can treat health uniformly.
func (r *CredentialRepo) Get(ctx context.Context, p platform.Platform) (*models.PlatformCredential, error) {
	c := &models.PlatformCredential{}
	query := `SELECT platform, access_token, refresh_token, expires_at, status, updated_at
		FROM platform_credentials WHERE platform = $1`

	err := r.pool.QueryRow(ctx, query, string(p)).Scan(
		&c.Platform, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.Status, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.PlatformCredential{Platform: p, Status: models.CredentialUnconfigured}, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Upsert stores new tokens and marks the credential healthy.
func (r *CredentialRepo) Upsert(ctx context.Context, c *models.PlatformCredential) error {
	c.Status = models.CredentialHealthy
	_, err := r.pool.Exec(ctx,
		`INSERT INTO platform_credentials (platform, access_token, refresh_token, expires_at, status, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (platform) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			status = EXCLUDED.status,
			updated_at = NOW()`,
		string(c.Platform), c.AccessToken, c.RefreshToken, c.ExpiresAt, string(c.Status),
	)
	return err
}

// MarkStatus flips credential health, e.g. to expired after a classified
// TokenExpired failure.
func (r *CredentialRepo) MarkStatus(ctx context.Context, p platform.Platform, status models.CredentialStatus) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE platform_credentials SET status = $1, updated_at = NOW() WHERE platform = $2",
		string(status), string(p),
	)
	return err
}
