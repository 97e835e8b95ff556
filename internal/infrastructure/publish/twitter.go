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

const tweetMaxChars = 280

// TeaserComposer reduces a full summary to a tweet-sized blurb.
type TeaserComposer interface {
	ComposeTeaser(ctx context.Context, summary, videoTitle, channelName string, maxChars int) (string, error)
}

// Twitter publishes video summaries as tweets through the v2 API.
type Twitter struct {
	endpoint    string
	bearerToken string
	composer    TeaserComposer
	client      *http.Client
}

var _ ports.Publisher = (*Twitter)(nil)

// NewTwitter wires the tweets endpoint and credentials. The composer is
// optional; without it the summary is truncated mechanically.
func NewTwitter(endpoint, bearerToken string, composer TeaserComposer) *Twitter {
	return &Twitter{
		endpoint:    endpoint,
		bearerToken: bearerToken,
		composer:    composer,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Name identifies the destination in publish references.
func (t *Twitter) Name() string {
	return "twitter"
}

// Publish posts a teaser with the video URL and returns the tweet id.
func (t *Twitter) Publish(ctx context.Context, pub ports.Publication) (string, error) {
	if t.bearerToken == "" {
		return "", fmt.Errorf("%w: twitter publisher misconfigured", domain.ErrAuth)
	}

	text, err := t.composeTweet(ctx, pub)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("marshal tweet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: post tweet: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("post tweet: %w", httpkind.FromStatus(resp.StatusCode, resp.Status))
	}

	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode tweet response: %v", domain.ErrUpstream, err)
	}
	if payload.Data.ID == "" {
		return "", fmt.Errorf("%w: tweet response missing id", domain.ErrUpstream)
	}

	return payload.Data.ID, nil
}

func (t *Twitter) composeTweet(ctx context.Context, pub ports.Publication) (string, error) {
	videoURL := pub.Video.URL()
	attribution := " - " + pub.ChannelName
	available := tweetMaxChars - len(videoURL) - len(attribution) - 3

	teaser := pub.Summary
	if t.composer != nil {
		composed, err := t.composer.ComposeTeaser(ctx, pub.Summary, pub.Video.Title, pub.ChannelName, available)
		if err != nil {
			return "", fmt.Errorf("compose teaser: %w", err)
		}
		teaser = composed
	}

	if len(teaser) > available {
		teaser = teaser[:available-3] + "..."
	}

	return fmt.Sprintf("%s %s%s", teaser, videoURL, attribution), nil
}
