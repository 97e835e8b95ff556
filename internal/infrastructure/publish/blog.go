package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"videodigest/internal/domain"
	"videodigest/internal/infrastructure/httpkind"
	"videodigest/internal/ports"
)

// Blog publishes full summaries as posts to a JSON post-creation endpoint.
type Blog struct {
	endpoint string
	apiToken string
	client   *http.Client
}

var _ ports.Publisher = (*Blog)(nil)

// NewBlog wires the post-creation endpoint and token.
func NewBlog(endpoint, apiToken string) *Blog {
	return &Blog{
		endpoint: endpoint,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Name identifies the destination in publish references.
func (b *Blog) Name() string {
	return "blog"
}

// Publish creates a post and returns its URL (or id when the API returns
// no URL).
func (b *Blog) Publish(ctx context.Context, pub ports.Publication) (string, error) {
	if b.endpoint == "" {
		return "", fmt.Errorf("%w: blog publisher misconfigured", domain.ErrAuth)
	}

	body, err := json.Marshal(map[string]string{
		"title":     pub.Video.Title,
		"content":   pub.Summary,
		"video_url": pub.Video.URL(),
		"channel":   pub.ChannelName,
	})
	if err != nil {
		return "", fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiToken)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: create post: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create post: %w", httpkind.FromStatus(resp.StatusCode, resp.Status))
	}

	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode post response: %v", domain.ErrUpstream, err)
	}

	if payload.URL != "" {
		return payload.URL, nil
	}
	if payload.ID != "" {
		return payload.ID, nil
	}
	return "", fmt.Errorf("%w: post response missing id and url", domain.ErrUpstream)
}
