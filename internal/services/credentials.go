package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

// CredentialService owns platform credential health and implements
// platform.TokenProvider for the adapters. Token acquisition (OAuth consent)
// is external; tokens arrive through the API and are refreshed here when a
// refresh token and client config are available.
type CredentialService struct {
	store        CredentialStore
	oauthConfigs map[platform.Platform]*oauth2.Config
	now          func() time.Time
}

func NewCredentialService(store CredentialStore, oauthConfigs map[platform.Platform]*oauth2.Config) *CredentialService {
	return &CredentialService{
		store:        store,
		oauthConfigs: oauthConfigs,
		now:          time.Now,
	}
}

// AccessToken returns a live token for the platform, refreshing if possible.
// Every unusable-credential path comes back as a classified TokenExpired so
// the caller can direct the operator to re-authenticate.
func (s *CredentialService) AccessToken(ctx context.Context, p platform.Platform) (string, error) {
	cred, err := s.store.Get(ctx, p)
	if err != nil {
		return "", err
	}

	if cred.Status == models.CredentialUnconfigured || cred.AccessToken == "" {
		return "", platform.NewPublishError(platform.KindTokenExpired,
			fmt.Sprintf("%s is not authenticated", p))
	}

	if cred.ExpiresAt == nil || cred.ExpiresAt.After(s.now()) {
		return cred.AccessToken, nil
	}

	// Token past its expiry: try a refresh before giving up.
	conf := s.oauthConfigs[p]
	if conf == nil || cred.RefreshToken == "" {
		s.store.MarkStatus(ctx, p, models.CredentialExpired)
		return "", platform.NewPublishError(platform.KindTokenExpired,
			fmt.Sprintf("%s token expired and cannot be refreshed", p))
	}

	refreshed, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		log.Printf("Token refresh failed for %s: %v", p, err)
		s.store.MarkStatus(ctx, p, models.CredentialExpired)
		return "", platform.NewPublishError(platform.KindTokenExpired,
			fmt.Sprintf("%s token refresh failed", p))
	}

	cred.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		cred.RefreshToken = refreshed.RefreshToken
	}
	if !refreshed.Expiry.IsZero() {
		expiry := refreshed.Expiry
		cred.ExpiresAt = &expiry
	}
	if err := s.store.Upsert(ctx, cred); err != nil {
		log.Printf("Failed to persist refreshed %s token: %v", p, err)
	}
	return cred.AccessToken, nil
}

// UpdateCredentials stores operator-provided tokens and marks the platform
// healthy again.
func (s *CredentialService) UpdateCredentials(ctx context.Context, p platform.Platform, req models.UpdateCredentialsRequest) error {
	if req.AccessToken == "" {
		return &ValidationError{Fields: map[string]string{"access_token": "Access token is required"}}
	}
	return s.store.Upsert(ctx, &models.PlatformCredential{
		Platform:     p,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    req.ExpiresAt,
	})
}

// PlatformOverview joins static capabilities with live credential health for
// the /platforms read model.
func (s *CredentialService) PlatformOverview(ctx context.Context) ([]models.PlatformInfo, error) {
	infos := make([]models.PlatformInfo, 0, len(platform.All()))
	for _, p := range platform.All() {
		caps, err := platform.CapabilitiesOf(p)
		if err != nil {
			return nil, err
		}
		cred, err := s.store.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		infos = append(infos, models.PlatformInfo{
			Platform:         p,
			Capabilities:     caps,
			CredentialStatus: cred.Status,
		})
	}
	return infos, nil
}
