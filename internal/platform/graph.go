package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// graphPost sends a form POST to the Facebook Graph API and returns the
// created object id. Graph errors are classified by HTTP status with the
// API's own message as detail.
func graphPost(ctx context.Context, client *http.Client, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		detail := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Message
		}
		return "", ClassifyHTTPStatus(resp.StatusCode, detail)
	}

	var ok struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &ok); err != nil || ok.ID == "" {
		return "", NewPublishError(KindPlatformRejected, "graph response missing post id")
	}
	return ok.ID, nil
}
