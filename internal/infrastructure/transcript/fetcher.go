package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"videodigest/internal/domain"
	"videodigest/internal/infrastructure/httpkind"
	"videodigest/internal/ports"
)

var captionTracksExpr = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

// Fetcher retrieves video transcripts by scraping the watch page for the
// caption track list and downloading the timedtext document.
type Fetcher struct {
	watchEndpoint string
	language      string
	client        *http.Client
}

var _ ports.TranscriptFetcher = (*Fetcher)(nil)

// NewFetcher wires the watch endpoint and preferred caption language.
func NewFetcher(watchEndpoint, language string, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if language == "" {
		language = "en"
	}
	return &Fetcher{
		watchEndpoint: watchEndpoint,
		language:      language,
		client:        client,
	}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// FetchTranscript returns the concatenated transcript text for a video.
// Videos without caption tracks fail with ErrInvalidInput; retrying them
// will not help.
func (f *Fetcher) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	tracks, err := f.captionTracks(ctx, videoID)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("%w: video %s has no caption tracks", domain.ErrInvalidInput, videoID)
	}

	track := tracks[0]
	for _, t := range tracks {
		if t.LanguageCode == f.language {
			track = t
			break
		}
	}

	return f.download(ctx, videoID, track.BaseURL)
}

func (f *Fetcher) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	pageURL := fmt.Sprintf("%s/watch?v=%s", f.watchEndpoint, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Language", f.language)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch watch page for %s: %v", domain.ErrUpstream, videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page for %s: %w", videoID, httpkind.FromStatus(resp.StatusCode, resp.Status))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse watch page for %s: %v", domain.ErrUpstream, videoID, err)
	}

	var tracks []captionTrack
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "ytInitialPlayerResponse") {
			return true
		}
		match := captionTracksExpr.FindStringSubmatch(text)
		if match == nil {
			return true
		}
		if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
			tracks = nil
			return true
		}
		return false
	})

	return tracks, nil
}

func (f *Fetcher) download(ctx context.Context, videoID, trackURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch timedtext for %s: %v", domain.ErrUpstream, videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext for %s: %w", videoID, httpkind.FromStatus(resp.StatusCode, resp.Status))
	}

	var doc timedText
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: decode timedtext for %s: %v", domain.ErrUpstream, videoID, err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		value := strings.TrimSpace(html.UnescapeString(t.Value))
		if value != "" {
			parts = append(parts, value)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty transcript for video %s", domain.ErrInvalidInput, videoID)
	}

	return strings.Join(parts, " "), nil
}
