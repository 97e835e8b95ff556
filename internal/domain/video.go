package domain

import "time"

// Channel identifies a monitored channel. Configuration owns the list;
// LastChecked is advisory only and never used for correctness.
type Channel struct {
	ID          string
	Name        string
	LastChecked time.Time
}

// VideoCandidate is a video discovered by listing a channel. Transient:
// produced by a lister on each run, never persisted directly.
type VideoCandidate struct {
	VideoID     string
	ChannelID   string
	Title       string
	PublishedAt time.Time
}

// URL returns the public watch URL for the candidate.
func (v VideoCandidate) URL() string {
	return "https://youtu.be/" + v.VideoID
}

// Status enumerates pipeline milestones for a processing record.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusTranscribed Status = "TRANSCRIBED"
	StatusSummarized  Status = "SUMMARIZED"
	StatusPublished   Status = "PUBLISHED"
	StatusFailed      Status = "FAILED"
)

var statusRank = map[Status]int{
	StatusPending:     0,
	StatusTranscribed: 1,
	StatusSummarized:  2,
	StatusPublished:   3,
}

// Before reports whether s precedes other in the pipeline order.
// FAILED has no rank; it is a side state, not part of the progression.
func (s Status) Before(other Status) bool {
	sr, ok1 := statusRank[s]
	or, ok2 := statusRank[other]
	return ok1 && ok2 && sr < or
}

// Terminal reports whether no further processing may touch the record.
func (s Status) Terminal() bool {
	return s == StatusPublished
}

// Stage names one of the three sequential pipeline steps.
type Stage string

const (
	StageTranscript Stage = "transcript"
	StageSummarize  Stage = "summarize"
	StagePublish    Stage = "publish"
)

// EntryStatus returns the status a record retries from after failing at this stage.
func (s Stage) EntryStatus() Status {
	switch s {
	case StageSummarize:
		return StatusTranscribed
	case StagePublish:
		return StatusSummarized
	default:
		return StatusPending
	}
}

// PublishRef records one successful publish to one destination.
type PublishRef struct {
	Destination string `json:"destination"`
	Reference   string `json:"reference"`
}

// ProcessingRecord is the durable ledger entry for one video, keyed by
// (channel_id, video_id). Created the first time a video is seen, updated
// on every stage transition, never deleted.
type ProcessingRecord struct {
	ChannelID    string
	VideoID      string
	Title        string
	Status       Status
	FailedStage  Stage
	AttemptCount int
	LastError    string
	SummaryText  string
	PublishRefs  []PublishRef
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublishedTo reports whether the record already carries a reference for
// the named destination.
func (r *ProcessingRecord) PublishedTo(destination string) bool {
	for _, ref := range r.PublishRefs {
		if ref.Destination == destination {
			return true
		}
	}
	return false
}
