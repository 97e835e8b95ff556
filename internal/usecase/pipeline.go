package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"videodigest/internal/domain"
	"videodigest/internal/lister"
	"videodigest/internal/ports"
)

// SummaryOptions are the per-channel summarization settings.
type SummaryOptions struct {
	Style             string
	MaxWords          int
	IncludeTimestamps bool
}

// ChannelJob describes one channel's run: which lister strategy to use,
// how to summarize, and which destinations to publish to.
type ChannelJob struct {
	Channel    domain.Channel
	Lister     string
	Summary    SummaryOptions
	Publishers []string
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Listers    *lister.Registry
	Fetcher    ports.TranscriptFetcher
	Summarizer ports.Summarizer
	Publishers map[string]ports.Publisher
	Store      ports.RecordStore
	Logger     *slog.Logger

	MaxVideosPerChannel int
	MaxAttempts         int
	LookBack            time.Duration
	Now                 func() time.Time
}

// Pipeline drives each unseen video through fetch, summarize, publish,
// committing the ledger at every transition so a re-triggered or resumed
// run never repeats completed work.
type Pipeline struct {
	listers    *lister.Registry
	fetcher    ports.TranscriptFetcher
	summarizer ports.Summarizer
	publishers map[string]ports.Publisher
	store      ports.RecordStore
	logger     *slog.Logger

	maxVideos   int
	maxAttempts int
	lookBack    time.Duration
	now         func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxVideosPerChannel <= 0 {
		deps.MaxVideosPerChannel = 3
	}
	if deps.MaxAttempts <= 0 {
		deps.MaxAttempts = 3
	}
	return &Pipeline{
		listers:     deps.Listers,
		fetcher:     deps.Fetcher,
		summarizer:  deps.Summarizer,
		publishers:  deps.Publishers,
		store:       deps.Store,
		logger:      deps.Logger,
		maxVideos:   deps.MaxVideosPerChannel,
		maxAttempts: deps.MaxAttempts,
		lookBack:    deps.LookBack,
		now:         deps.Now,
	}
}

// ledgerError marks a store failure so it is never mistaken for a stage
// failure; it aborts the channel instead of consuming a retry attempt.
type ledgerError struct{ err error }

func (e ledgerError) Error() string { return e.err.Error() }
func (e ledgerError) Unwrap() error { return e.err }

type outcome int

const (
	outcomeAlreadyDone outcome = iota
	outcomePublished
	outcomeFailed
	outcomePermanent
	outcomeRateLimited
)

// Run executes one pipeline pass over all channel jobs. Channels are
// processed independently; one channel's failure never blocks another.
func (p *Pipeline) Run(ctx context.Context, jobs []ChannelJob) Report {
	report := NewReport(p.now())
	p.logger.Info("run started", "run_id", report.RunID, "channels", len(jobs))

	var publishedAfter time.Time
	if p.lookBack > 0 {
		publishedAfter = report.StartedAt.Add(-p.lookBack)
	}

	for _, job := range jobs {
		p.processChannel(ctx, job, publishedAfter, &report)
	}

	report.FinishedAt = p.now()
	p.logger.Info("run finished",
		"run_id", report.RunID,
		"published", report.Published,
		"already_done", report.AlreadyDone,
		"failed", report.Failed,
		"permanent", report.Permanent,
		"channel_errors", report.ChannelErrors,
	)
	return report
}

func (p *Pipeline) processChannel(ctx context.Context, job ChannelJob, publishedAfter time.Time, report *Report) {
	log := p.logger.With("channel", job.Channel.ID)

	lst, err := p.listers.Resolve(job.Lister)
	if err != nil {
		log.Error("channel skipped", "error", err)
		report.ChannelErrors++
		return
	}

	candidates, err := lst.ListVideos(ctx, ports.ListRequest{
		Channel:        job.Channel,
		MaxResults:     p.maxVideos,
		PublishedAfter: publishedAfter,
	})
	if err != nil {
		log.Warn("listing failed, channel skipped until next run", "error", err)
		report.ChannelErrors++
		return
	}

	log.Debug("channel listed", "candidates", len(candidates))

	for _, cand := range candidates {
		out, err := p.processVideo(ctx, job, cand)
		if err != nil {
			// Ledger writes must not be lost silently; abandon the channel
			// and let the next run resume from the last committed state.
			log.Error("ledger error, abandoning channel", "video", cand.VideoID, "error", err)
			report.ChannelErrors++
			return
		}

		switch out {
		case outcomeAlreadyDone:
			report.AlreadyDone++
		case outcomePublished:
			report.Published++
		case outcomeFailed:
			report.Failed++
		case outcomePermanent:
			report.Permanent++
		case outcomeRateLimited:
			report.Failed++
			log.Warn("rate limited, skipping remaining videos this run", "video", cand.VideoID)
			return
		}
	}
}

// processVideo decides the entry point for one candidate from its ledger
// record and drives it through the remaining stages.
func (p *Pipeline) processVideo(ctx context.Context, job ChannelJob, cand domain.VideoCandidate) (outcome, error) {
	log := p.logger.With("channel", job.Channel.ID, "video", cand.VideoID)

	rec, err := p.store.Get(ctx, job.Channel.ID, cand.VideoID)
	if err != nil {
		return 0, err
	}

	now := p.now()
	if rec == nil {
		rec = &domain.ProcessingRecord{
			ChannelID: job.Channel.ID,
			VideoID:   cand.VideoID,
			Title:     cand.Title,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := p.store.Put(ctx, *rec); err != nil {
			return 0, err
		}
	} else {
		switch {
		case rec.Status == domain.StatusPublished:
			log.Debug("already published, skipping")
			return outcomeAlreadyDone, nil
		case rec.Status == domain.StatusFailed && rec.AttemptCount >= p.maxAttempts:
			log.Warn("retry budget exhausted, never attempted again",
				"attempts", rec.AttemptCount, "stage", rec.FailedStage, "last_error", rec.LastError)
			return outcomePermanent, nil
		case rec.Status == domain.StatusFailed:
			// Retry from the stage the record failed at.
			rec.Status = rec.FailedStage.EntryStatus()
			log.Debug("retrying failed video", "attempt", rec.AttemptCount+1, "from", rec.Status)
		default:
			// Mid-pipeline non-terminal: a previous run crashed mid-stage.
			log.Debug("resuming interrupted video", "from", rec.Status)
		}
	}

	return p.advance(ctx, job, cand, rec, log)
}

// advance walks the per-video state machine. Each successful transition is
// committed before the next stage is attempted.
func (p *Pipeline) advance(ctx context.Context, job ChannelJob, cand domain.VideoCandidate, rec *domain.ProcessingRecord, log *slog.Logger) (outcome, error) {
	var transcript string

	for !rec.Status.Terminal() {
		var (
			stage    domain.Stage
			stageErr error
		)

		switch rec.Status {
		case domain.StatusPending:
			stage = domain.StageTranscript
			transcript, stageErr = p.fetcher.FetchTranscript(ctx, cand.VideoID)
			if stageErr == nil {
				rec.Status = domain.StatusTranscribed
			}

		case domain.StatusTranscribed:
			stage = domain.StageSummarize
			if transcript == "" {
				// Resumed run: the transcript was never persisted, it is
				// re-fetchable.
				transcript, stageErr = p.fetcher.FetchTranscript(ctx, cand.VideoID)
			}
			if stageErr == nil {
				var summary string
				summary, stageErr = p.summarizer.Summarize(ctx, ports.SummaryRequest{
					Transcript:        transcript,
					Style:             job.Summary.Style,
					MaxWords:          job.Summary.MaxWords,
					IncludeTimestamps: job.Summary.IncludeTimestamps,
					VideoTitle:        cand.Title,
					ChannelName:       job.Channel.Name,
				})
				if stageErr == nil {
					rec.SummaryText = summary
					rec.Status = domain.StatusSummarized
				}
			}

		case domain.StatusSummarized:
			stage = domain.StagePublish
			stageErr = p.publishAll(ctx, job, cand, rec)
			if stageErr == nil {
				rec.Status = domain.StatusPublished
			}

		default:
			return 0, fmt.Errorf("record %s/%s in unexpected status %s", rec.ChannelID, rec.VideoID, rec.Status)
		}

		if stageErr != nil {
			var le ledgerError
			if errors.As(stageErr, &le) {
				return 0, le.err
			}
			return p.recordFailure(ctx, rec, stage, stageErr, log)
		}

		rec.FailedStage = ""
		rec.LastError = ""
		rec.UpdatedAt = p.now()
		if err := p.store.Put(ctx, *rec); err != nil {
			return 0, err
		}
	}

	log.Info("video published", "destinations", len(rec.PublishRefs))
	return outcomePublished, nil
}

// recordFailure commits FAILED tagged with the stage so the next run knows
// where to retry. attempt_count goes up once per attempt, not per stage.
func (p *Pipeline) recordFailure(ctx context.Context, rec *domain.ProcessingRecord, stage domain.Stage, stageErr error, log *slog.Logger) (outcome, error) {
	rec.AttemptCount++
	rec.Status = domain.StatusFailed
	rec.FailedStage = stage
	rec.LastError = stageErr.Error()
	rec.UpdatedAt = p.now()
	if err := p.store.Put(ctx, *rec); err != nil {
		return 0, err
	}

	log.Warn("stage failed",
		"stage", stage,
		"attempt", rec.AttemptCount,
		"retryable", domain.Retryable(stageErr),
		"error", stageErr,
	)

	if errors.Is(stageErr, domain.ErrRateLimited) {
		return outcomeRateLimited, nil
	}
	if rec.AttemptCount >= p.maxAttempts {
		return outcomePermanent, nil
	}
	return outcomeFailed, nil
}

// publishAll fans out to every configured destination, committing the
// publish reference immediately after each successful call. The window
// between a publish success and its commit is the one accepted spot where
// a crash could double-publish on resume.
func (p *Pipeline) publishAll(ctx context.Context, job ChannelJob, cand domain.VideoCandidate, rec *domain.ProcessingRecord) error {
	pub := ports.Publication{
		Summary:     rec.SummaryText,
		Video:       cand,
		ChannelName: job.Channel.Name,
	}

	for _, name := range job.Publishers {
		publisher, ok := p.publishers[name]
		if !ok {
			return fmt.Errorf("%w: publisher %s is not configured", domain.ErrInvalidInput, name)
		}
		if rec.PublishedTo(name) {
			continue
		}

		ref, err := publisher.Publish(ctx, pub)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", name, err)
		}

		rec.PublishRefs = append(rec.PublishRefs, domain.PublishRef{Destination: name, Reference: ref})
		rec.UpdatedAt = p.now()
		if err := p.store.Put(ctx, *rec); err != nil {
			return ledgerError{err}
		}
	}

	return nil
}
