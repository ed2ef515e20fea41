package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// InstagramAdapter publishes via the two-step Graph container flow: create a
// media container with the video thumbnail + caption, then publish it.
// Instagram has no deferred publish API, so it is registered immediate-only.
type InstagramAdapter struct {
	client   *http.Client
	igUserID string
	tokens   TokenProvider
	baseURL  string
}

func NewInstagramAdapter(tokens TokenProvider, igUserID string) *InstagramAdapter {
	return &InstagramAdapter{
		client:   &http.Client{Timeout: 30 * time.Second},
		igUserID: igUserID,
		tokens:   tokens,
		baseURL:  defaultGraphBaseURL,
	}
}

func (a *InstagramAdapter) Name() Platform { return Instagram }

func (a *InstagramAdapter) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	if req.ScheduledAt != nil {
		return PublishResult{}, NewPublishError(KindSchedulingUnsupported, "instagram does not support scheduled posts")
	}

	token, err := a.tokens.AccessToken(ctx, Instagram)
	if err != nil {
		return PublishResult{}, err
	}

	caption := req.Content
	if req.VideoURL != "" {
		caption = caption + "\n" + req.VideoURL
	}

	form := url.Values{}
	form.Set("image_url", req.ThumbnailURL)
	form.Set("caption", caption)
	form.Set("access_token", token)

	containerID, err := graphPost(ctx, a.client, fmt.Sprintf("%s/%s/media", a.baseURL, a.igUserID), form)
	if err != nil {
		return PublishResult{}, err
	}

	publishForm := url.Values{}
	publishForm.Set("creation_id", containerID)
	publishForm.Set("access_token", token)

	id, err := graphPost(ctx, a.client, fmt.Sprintf("%s/%s/media_publish", a.baseURL, a.igUserID), publishForm)
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{PlatformPostID: id}, nil
}
