package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"videodigest/internal/config"
	"videodigest/internal/domain"
	"videodigest/internal/infrastructure/llm"
	"videodigest/internal/infrastructure/publish"
	"videodigest/internal/infrastructure/scheduler"
	"videodigest/internal/infrastructure/storage"
	"videodigest/internal/infrastructure/transcript"
	"videodigest/internal/infrastructure/youtube"
	"videodigest/internal/lister"
	"videodigest/internal/logging"
	"videodigest/internal/ports"
	"videodigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	jobs     []usecase.ChannelJob
	store    interface{ Close() error }
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, closer, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	registry := lister.NewRegistry()
	registry.Register(youtube.NewAPILister(cfg.YouTube.APIEndpoint, cfg.YouTube.APIKey, cfg.YouTube.RequestsPerSecond, nil))
	registry.Register(youtube.NewRSSLister(cfg.YouTube.FeedEndpoint))

	fetcher := transcript.NewFetcher(cfg.YouTube.WatchEndpoint, cfg.YouTube.Language, nil)
	summarizer := llm.NewClient(cfg.OpenAI)

	publishers := map[string]ports.Publisher{}
	if cfg.Twitter.BearerToken != "" {
		publishers["twitter"] = publish.NewTwitter(cfg.Twitter.Endpoint, cfg.Twitter.BearerToken, summarizer)
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		publishers["telegram"] = publish.NewTelegram("", cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	if cfg.Blog.Endpoint != "" {
		publishers["blog"] = publish.NewBlog(cfg.Blog.Endpoint, cfg.Blog.APIToken)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Listers:             registry,
		Fetcher:             fetcher,
		Summarizer:          summarizer,
		Publishers:          publishers,
		Store:               store,
		Logger:              baseLogger.With("component", "pipeline"),
		MaxVideosPerChannel: cfg.Pipeline.MaxVideosPerChannel,
		MaxAttempts:         cfg.Pipeline.MaxAttempts,
		LookBack:            time.Duration(cfg.Pipeline.DaysToLookBack) * 24 * time.Hour,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		jobs:     buildJobs(cfg),
		store:    closer,
	}, nil
}

// RunOnce performs a single pipeline execution and returns the run report.
func (a *Application) RunOnce(ctx context.Context) usecase.Report {
	return a.pipeline.Run(ctx, a.jobs)
}

// RunDaemon keeps the pipeline running on the configured interval until
// the context is cancelled.
func (a *Application) RunDaemon(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Period())
	sched := usecase.NewScheduler(driver, a.pipeline, a.jobs, a.logger.With("component", "scheduler"))

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases the ledger store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func openStore(cfg config.StorageConfig) (ports.RecordStore, interface{ Close() error }, error) {
	switch cfg.Driver {
	case "", "sqlite":
		store, err := storage.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "postgres":
		store, err := storage.NewPostgresStore(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func buildJobs(cfg config.Config) []usecase.ChannelJob {
	jobs := make([]usecase.ChannelJob, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		strategy := ch.Lister
		if strategy == "" {
			strategy = "api"
		}

		var destinations []string
		if ch.PostToTwitter {
			destinations = append(destinations, "twitter")
		}
		if ch.PostToTelegram {
			destinations = append(destinations, "telegram")
		}
		if ch.PostToBlog {
			destinations = append(destinations, "blog")
		}

		jobs = append(jobs, usecase.ChannelJob{
			Channel: domain.Channel{ID: ch.ID, Name: ch.Name},
			Lister:  strategy,
			Summary: usecase.SummaryOptions{
				Style:             ch.SummaryStyle,
				MaxWords:          ch.SummaryLength,
				IncludeTimestamps: ch.IncludeTimestamps,
			},
			Publishers: destinations,
		})
	}
	return jobs
}
