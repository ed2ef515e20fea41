package models

import (
	"time"

	"crosspost-backend/internal/platform"
)

// CredentialStatus is an explicit, queryable fact per platform. Credential
// health is never inferred from error strings.
type CredentialStatus string

const (
	CredentialUnconfigured CredentialStatus = "unconfigured"
	CredentialHealthy      CredentialStatus = "healthy"
	CredentialExpired      CredentialStatus = "expired"
)

type PlatformCredential struct {
	Platform     platform.Platform `json:"platform"`
	AccessToken  string            `json:"-"`
	RefreshToken string            `json:"-"`
	ExpiresAt    *time.Time        `json:"expires_at"`
	Status       CredentialStatus  `json:"status"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type UpdateCredentialsRequest struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// PlatformInfo is the /platforms read model: static capability plus live
// credential health.
type PlatformInfo struct {
	Platform         platform.Platform     `json:"platform"`
	Capabilities     platform.Capabilities `json:"capabilities"`
	CredentialStatus CredentialStatus      `json:"credential_status"`
}
