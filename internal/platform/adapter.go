package platform

import (
	"context"
	"time"
)

// PublishRequest carries everything an adapter needs to create a post about a
// video. ScheduledAt nil means publish immediately.
type PublishRequest struct {
	VideoExternalID string
	VideoURL        string
	ThumbnailURL    string
	Title           string
	Content         string
	Tags            []string
	ScheduledAt     *time.Time
}

// PublishResult is the successful half of an adapter outcome.
type PublishResult struct {
	PlatformPostID string
}

// Adapter is the per-platform integration boundary. Exactly one attempt per
// call; retries belong to the caller. Failures should come back as
// *PublishError where the adapter can classify them itself, anything else is
// run through Classify.
type Adapter interface {
	Name() Platform
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
}

// TokenProvider hands adapters a live access token for their platform.
// Implementations own refresh; an expired credential surfaces as a
// TokenExpired PublishError.
type TokenProvider interface {
	AccessToken(ctx context.Context, p Platform) (string, error)
}
