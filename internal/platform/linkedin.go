package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultLinkedInBaseURL = "https://api.linkedin.com"

// LinkedInAdapter shares the video link as a UGC post on behalf of the
// configured author URN. LinkedIn's API has no scheduled-post operation, so
// the adapter is immediate-only.
type LinkedInAdapter struct {
	client    *http.Client
	authorURN string
	tokens    TokenProvider
	baseURL   string
}

func NewLinkedInAdapter(tokens TokenProvider, authorURN string) *LinkedInAdapter {
	return &LinkedInAdapter{
		client:    &http.Client{Timeout: 30 * time.Second},
		authorURN: authorURN,
		tokens:    tokens,
		baseURL:   defaultLinkedInBaseURL,
	}
}

func (a *LinkedInAdapter) Name() Platform { return LinkedIn }

func (a *LinkedInAdapter) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	if req.ScheduledAt != nil {
		return PublishResult{}, NewPublishError(KindSchedulingUnsupported, "linkedin does not support scheduled posts")
	}

	token, err := a.tokens.AccessToken(ctx, LinkedIn)
	if err != nil {
		return PublishResult{}, err
	}

	payload := map[string]interface{}{
		"author":         a.authorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": req.Content},
				"shareMediaCategory": "ARTICLE",
				"media": []map[string]interface{}{{
					"status":      "READY",
					"originalUrl": req.VideoURL,
					"title":       map[string]string{"text": req.Title},
				}},
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return PublishResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return PublishResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return PublishResult{}, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		detail := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			detail = apiErr.Message
		}
		return PublishResult{}, ClassifyHTTPStatus(resp.StatusCode, detail)
	}

	// LinkedIn returns the new URN in the X-RestLi-Id header.
	postID := resp.Header.Get("X-RestLi-Id")
	if postID == "" {
		var created struct {
			ID string `json:"id"`
		}
		json.Unmarshal(respBody, &created)
		postID = created.ID
	}
	return PublishResult{PlatformPostID: postID}, nil
}
