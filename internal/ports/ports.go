package ports

import (
	"context"
	"time"

	"videodigest/internal/domain"
)

// ListRequest carries the parameters for one channel listing.
type ListRequest struct {
	Channel        domain.Channel
	MaxResults     int
	PublishedAfter time.Time
}

// VideoLister produces a channel's videos newest-first.
type VideoLister interface {
	ListVideos(ctx context.Context, req ListRequest) ([]domain.VideoCandidate, error)
}

// TranscriptFetcher retrieves the transcript text for a video. Transcripts
// are re-fetchable, so callers may invoke this again on resume.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}

// SummaryRequest bundles the transcript with per-channel summary settings.
type SummaryRequest struct {
	Transcript        string
	Style             string
	MaxWords          int
	IncludeTimestamps bool
	VideoTitle        string
	ChannelName       string
}

// Summarizer turns a transcript into summary text.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// Publication is the payload handed to each publisher.
type Publication struct {
	Summary     string
	Video       domain.VideoCandidate
	ChannelName string
}

// Publisher performs the side-effecting publish and returns an external
// reference (post id or URL) for audit.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, pub Publication) (string, error)
}

// RecordStore is the dedup ledger. Get returns (nil, nil) when the key is
// absent. Put is an upsert and must be durable before it returns. No delete
// is exposed; records live forever.
type RecordStore interface {
	Get(ctx context.Context, channelID, videoID string) (*domain.ProcessingRecord, error)
	Put(ctx context.Context, rec domain.ProcessingRecord) error
	List(ctx context.Context, channelID string) ([]domain.ProcessingRecord, error)
}

// Scheduler controls when pipeline runs execute in daemon mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
