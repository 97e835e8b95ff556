package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"videodigest/internal/domain"
)

const timedTextPayload = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="1.4">Hello &amp;amp; welcome</text>
  <text start="1.4" dur="2.1">to the show</text>
  <text start="3.5" dur="0.5"> </text>
</transcript>`

func newCaptionServer(t *testing.T, withTracks bool) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") == "" {
			t.Errorf("watch request missing video id")
		}
		tracks := ""
		if withTracks {
			tracks = fmt.Sprintf(`"captionTracks":[{"baseUrl":"%s/timedtext?v=V1","languageCode":"en"},{"baseUrl":"%s/timedtext?v=V1&lang=de","languageCode":"de"}],`, server.URL, server.URL)
		}
		page := fmt.Sprintf(`<html><head>
			<script>var other = 1;</script>
			<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{%s"audioTracks":[]}}};</script>
		</head><body></body></html>`, tracks)
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(timedTextPayload))
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchTranscript(t *testing.T) {
	t.Parallel()

	server := newCaptionServer(t, true)
	fetcher := NewFetcher(server.URL, "en", server.Client())

	text, err := fetcher.FetchTranscript(context.Background(), "V1")
	if err != nil {
		t.Fatalf("fetch transcript: %v", err)
	}

	want := "Hello & welcome to the show"
	if text != want {
		t.Fatalf("expected %q, got %q", want, text)
	}
}

func TestFetchTranscriptNoCaptions(t *testing.T) {
	t.Parallel()

	server := newCaptionServer(t, false)
	fetcher := NewFetcher(server.URL, "en", server.Client())

	_, err := fetcher.FetchTranscript(context.Background(), "V1")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing captions, got %v", err)
	}
}

func TestFetchTranscriptUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, "en", server.Client())
	_, err := fetcher.FetchTranscript(context.Background(), "V1")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
