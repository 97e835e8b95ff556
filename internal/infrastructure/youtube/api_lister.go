package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"videodigest/internal/domain"
	"videodigest/internal/infrastructure/httpkind"
	"videodigest/internal/ports"
)

// APILister lists channel uploads through the YouTube Data API v3 search
// endpoint, newest-first.
type APILister struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

var _ ports.VideoLister = (*APILister)(nil)

// NewAPILister wires the Data API endpoint, key and request budget.
func NewAPILister(endpoint, apiKey string, requestsPerSecond float64, client *http.Client) *APILister {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &APILister{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Name identifies the strategy inside the registry.
func (l *APILister) Name() string {
	return "api"
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			ChannelID   string    `json:"channelId"`
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// ListVideos queries the search endpoint ordered by date.
func (l *APILister) ListVideos(ctx context.Context, req ports.ListRequest) ([]domain.VideoCandidate, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("%w: youtube api key is not configured", domain.ErrAuth)
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("channelId", req.Channel.ID)
	query.Set("maxResults", strconv.Itoa(req.MaxResults))
	query.Set("order", "date")
	query.Set("type", "video")
	query.Set("key", l.apiKey)
	if !req.PublishedAfter.IsZero() {
		query.Set("publishedAfter", req.PublishedAfter.UTC().Format(time.RFC3339))
	}

	endpoint := l.endpoint + "/search?" + query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: list channel %s: %v", domain.ErrUpstream, req.Channel.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list channel %s: %w", req.Channel.ID, httpkind.FromStatus(resp.StatusCode, resp.Status))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", domain.ErrUpstream, err)
	}

	candidates := make([]domain.VideoCandidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		channelID := item.Snippet.ChannelID
		if channelID == "" {
			channelID = req.Channel.ID
		}
		candidates = append(candidates, domain.VideoCandidate{
			VideoID:     item.ID.VideoID,
			ChannelID:   channelID,
			Title:       item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}

	return candidates, nil
}
