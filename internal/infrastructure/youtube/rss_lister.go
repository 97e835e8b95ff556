package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"videodigest/internal/domain"
	"videodigest/internal/infrastructure/httpkind"
	"videodigest/internal/ports"
)

const videoGUIDPrefix = "yt:video:"

// RSSLister lists channel uploads through the public Atom feed. It needs no
// API key, which makes it the fallback strategy when no quota is available.
type RSSLister struct {
	feedEndpoint string
	parser       *gofeed.Parser
}

var _ ports.VideoLister = (*RSSLister)(nil)

// NewRSSLister wires the feed endpoint (videos.xml base URL).
func NewRSSLister(feedEndpoint string) *RSSLister {
	return &RSSLister{
		feedEndpoint: feedEndpoint,
		parser:       gofeed.NewParser(),
	}
}

// Name identifies the strategy inside the registry.
func (l *RSSLister) Name() string {
	return "rss"
}

// ListVideos fetches and parses the channel feed. Feed entries arrive
// newest-first; the result is bounded by MaxResults and PublishedAfter.
func (l *RSSLister) ListVideos(ctx context.Context, req ports.ListRequest) ([]domain.VideoCandidate, error) {
	feedURL := fmt.Sprintf("%s?channel_id=%s", l.feedEndpoint, req.Channel.ID)

	feed, err := l.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, fmt.Errorf("fetch feed for channel %s: %w", req.Channel.ID, httpkind.FromStatus(httpErr.StatusCode, httpErr.Status))
		}
		return nil, fmt.Errorf("%w: fetch feed for channel %s: %v", domain.ErrUpstream, req.Channel.ID, err)
	}

	candidates := make([]domain.VideoCandidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if req.MaxResults > 0 && len(candidates) >= req.MaxResults {
			break
		}

		videoID := extractVideoID(item)
		if videoID == "" {
			continue
		}

		publishedAt := time.Time{}
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		}
		if !req.PublishedAfter.IsZero() && !publishedAt.IsZero() && publishedAt.Before(req.PublishedAfter) {
			continue
		}

		candidates = append(candidates, domain.VideoCandidate{
			VideoID:     videoID,
			ChannelID:   req.Channel.ID,
			Title:       item.Title,
			PublishedAt: publishedAt,
		})
	}

	return candidates, nil
}

func extractVideoID(item *gofeed.Item) string {
	if strings.HasPrefix(item.GUID, videoGUIDPrefix) {
		return strings.TrimPrefix(item.GUID, videoGUIDPrefix)
	}

	if yt, ok := item.Extensions["yt"]; ok {
		if ids, ok := yt["videoId"]; ok && len(ids) > 0 {
			return strings.TrimSpace(ids[0].Value)
		}
	}

	return ""
}
