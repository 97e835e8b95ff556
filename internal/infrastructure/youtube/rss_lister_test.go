package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"videodigest/internal/domain"
	"videodigest/internal/ports"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <id>yt:channel:C1</id>
  <title>Test Channel</title>
  <entry>
    <id>yt:video:V2</id>
    <yt:videoId>V2</yt:videoId>
    <title>Newest</title>
    <published>2024-04-30T12:00:00+00:00</published>
  </entry>
  <entry>
    <id>yt:video:V1</id>
    <yt:videoId>V1</yt:videoId>
    <title>Older</title>
    <published>2024-04-20T12:00:00+00:00</published>
  </entry>
</feed>`

func TestRSSListerParsesFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("channel_id") != "C1" {
			t.Errorf("missing channel_id query, got %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(channelFeed))
	}))
	defer server.Close()

	lister := NewRSSLister(server.URL)
	videos, err := lister.ListVideos(context.Background(), ports.ListRequest{
		Channel:    domain.Channel{ID: "C1"},
		MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}

	if len(videos) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(videos))
	}
	if videos[0].VideoID != "V2" || videos[0].Title != "Newest" {
		t.Fatalf("unexpected first candidate: %+v", videos[0])
	}
	if videos[0].PublishedAt.IsZero() {
		t.Fatalf("publish timestamp not parsed")
	}
}

func TestRSSListerBoundsResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(channelFeed))
	}))
	defer server.Close()

	lister := NewRSSLister(server.URL)

	videos, err := lister.ListVideos(context.Background(), ports.ListRequest{
		Channel:    domain.Channel{ID: "C1"},
		MaxResults: 1,
	})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(videos) != 1 || videos[0].VideoID != "V2" {
		t.Fatalf("expected only the newest candidate, got %+v", videos)
	}

	videos, err = lister.ListVideos(context.Background(), ports.ListRequest{
		Channel:        domain.Channel{ID: "C1"},
		MaxResults:     5,
		PublishedAfter: time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(videos) != 1 || videos[0].VideoID != "V2" {
		t.Fatalf("expected publishedAfter to drop the older entry, got %+v", videos)
	}
}

func TestRSSListerMapsHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	lister := NewRSSLister(server.URL)
	_, err := lister.ListVideos(context.Background(), ports.ListRequest{
		Channel: domain.Channel{ID: "missing"},
	})
	if !errors.Is(err, domain.ErrChannelUnreachable) {
		t.Fatalf("expected channel unreachable, got %v", err)
	}
}
