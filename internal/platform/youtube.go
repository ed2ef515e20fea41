package platform

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"
)

// YouTubeAdapter publishes by flipping the video itself from private to
// public. YouTube supports deferred publishing natively via status.publishAt,
// so scheduled requests are handed straight to the API.
type YouTubeAdapter struct {
	tokens TokenProvider
}

func NewYouTubeAdapter(tokens TokenProvider) *YouTubeAdapter {
	return &YouTubeAdapter{tokens: tokens}
}

func (a *YouTubeAdapter) Name() Platform { return YouTube }

func (a *YouTubeAdapter) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	token, err := a.tokens.AccessToken(ctx, YouTube)
	if err != nil {
		return PublishResult{}, err
	}

	svc, err := youtube.NewService(ctx, option.WithTokenSource(
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	))
	if err != nil {
		return PublishResult{}, err
	}

	status := &youtube.VideoStatus{PrivacyStatus: "public"}
	if req.ScheduledAt != nil {
		// publishAt requires the video to stay private until the deadline.
		status.PrivacyStatus = "private"
		status.PublishAt = req.ScheduledAt.UTC().Format(time.RFC3339)
	}

	video := &youtube.Video{
		Id:     req.VideoExternalID,
		Status: status,
	}

	updated, err := svc.Videos.Update([]string{"status"}, video).Context(ctx).Do()
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{PlatformPostID: updated.Id}, nil
}
