package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// FacebookAdapter posts a link to the page feed. Facebook supports deferred
// publishing via scheduled_publish_time (posts stay unpublished until then).
type FacebookAdapter struct {
	client  *http.Client
	pageID  string
	tokens  TokenProvider
	baseURL string
}

func NewFacebookAdapter(tokens TokenProvider, pageID string) *FacebookAdapter {
	return &FacebookAdapter{
		client:  &http.Client{Timeout: 30 * time.Second},
		pageID:  pageID,
		tokens:  tokens,
		baseURL: defaultGraphBaseURL,
	}
}

func (a *FacebookAdapter) Name() Platform { return Facebook }

func (a *FacebookAdapter) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	token, err := a.tokens.AccessToken(ctx, Facebook)
	if err != nil {
		return PublishResult{}, err
	}

	form := url.Values{}
	form.Set("message", req.Content)
	form.Set("link", req.VideoURL)
	form.Set("access_token", token)
	if req.ScheduledAt != nil {
		form.Set("published", "false")
		form.Set("scheduled_publish_time", strconv.FormatInt(req.ScheduledAt.Unix(), 10))
	}

	endpoint := fmt.Sprintf("%s/%s/feed", a.baseURL, a.pageID)
	id, err := graphPost(ctx, a.client, endpoint, form)
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{PlatformPostID: id}, nil
}
