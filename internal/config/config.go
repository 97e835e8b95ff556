package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv       = "VIDEODIGEST_CONFIG"
	youtubeAPIKeyEnv    = "YOUTUBE_API_KEY"
	openAIAPIKeyEnv     = "OPENAI_API_KEY"
	openAIModelEnv      = "OPENAI_MODEL"
	twitterBearerEnv    = "TWITTER_BEARER_TOKEN"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	blogTokenEnv        = "BLOG_API_TOKEN"
	databaseDSNEnv      = "DATABASE_DSN"
	stateDBPathEnv      = "STATE_DB_PATH"
)

// Config holds high-level settings required across the application.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	YouTube   YouTubeConfig   `yaml:"youtube"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Blog      BlogConfig      `yaml:"blog"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
	Channels  []ChannelConfig `yaml:"channels"`
}

// StorageConfig selects and parameterizes the processing ledger backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // sqlite file path
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// SchedulerConfig defines when daemon mode triggers a run.
type SchedulerConfig struct {
	Interval string         `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Period parses the interval string, defaulting to one day.
func (s SchedulerConfig) Period() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// YouTubeConfig wires the Data API lister and watch-page endpoints.
type YouTubeConfig struct {
	APIKey            string  `yaml:"apiKey"`
	APIEndpoint       string  `yaml:"apiEndpoint"`
	FeedEndpoint      string  `yaml:"feedEndpoint"`
	WatchEndpoint     string  `yaml:"watchEndpoint"`
	Language          string  `yaml:"language"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// OpenAIConfig defines how to contact the summarization API.
type OpenAIConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// TwitterConfig holds microblog publishing credentials.
type TwitterConfig struct {
	Endpoint    string `yaml:"endpoint"`
	BearerToken string `yaml:"bearerToken"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// BlogConfig points at a JSON post-creation endpoint.
type BlogConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIToken string `yaml:"apiToken"`
}

// PipelineConfig carries per-run tunables.
type PipelineConfig struct {
	MaxVideosPerChannel int `yaml:"maxVideosPerChannel"`
	MaxAttempts         int `yaml:"maxAttempts"`
	DaysToLookBack      int `yaml:"daysToLookBack"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChannelConfig describes a single monitored channel with its overrides.
type ChannelConfig struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Lister            string `yaml:"lister"` // "api" or "rss", default "api"
	SummaryStyle      string `yaml:"summaryStyle"`
	SummaryLength     int    `yaml:"summaryLength"`
	IncludeTimestamps bool   `yaml:"includeTimestamps"`
	PostToTwitter     bool   `yaml:"postToTwitter"`
	PostToTelegram    bool   `yaml:"postToTelegram"`
	PostToBlog        bool   `yaml:"postToBlog"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file in the working directory is honored first.
func Load(path string) Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(youtubeAPIKeyEnv); v != "" {
		c.YouTube.APIKey = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(twitterBearerEnv); v != "" {
		c.Twitter.BearerToken = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}

	if v := os.Getenv(blogTokenEnv); v != "" {
		c.Blog.APIToken = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(stateDBPathEnv); v != "" {
		c.Storage.Path = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.YouTube.APIKey != "" {
		base.YouTube.APIKey = override.YouTube.APIKey
	}
	if override.YouTube.APIEndpoint != "" {
		base.YouTube.APIEndpoint = override.YouTube.APIEndpoint
	}
	if override.YouTube.FeedEndpoint != "" {
		base.YouTube.FeedEndpoint = override.YouTube.FeedEndpoint
	}
	if override.YouTube.WatchEndpoint != "" {
		base.YouTube.WatchEndpoint = override.YouTube.WatchEndpoint
	}
	if override.YouTube.Language != "" {
		base.YouTube.Language = override.YouTube.Language
	}
	if override.YouTube.RequestsPerSecond != 0 {
		base.YouTube.RequestsPerSecond = override.YouTube.RequestsPerSecond
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.SystemPrompt != "" {
		base.OpenAI.SystemPrompt = override.OpenAI.SystemPrompt
	}

	if override.Twitter.Endpoint != "" {
		base.Twitter.Endpoint = override.Twitter.Endpoint
	}
	if override.Twitter.BearerToken != "" {
		base.Twitter.BearerToken = override.Twitter.BearerToken
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if override.Blog.Endpoint != "" {
		base.Blog.Endpoint = override.Blog.Endpoint
	}
	if override.Blog.APIToken != "" {
		base.Blog.APIToken = override.Blog.APIToken
	}

	if override.Pipeline.MaxVideosPerChannel != 0 {
		base.Pipeline.MaxVideosPerChannel = override.Pipeline.MaxVideosPerChannel
	}
	if override.Pipeline.MaxAttempts != 0 {
		base.Pipeline.MaxAttempts = override.Pipeline.MaxAttempts
	}
	if override.Pipeline.DaysToLookBack != 0 {
		base.Pipeline.DaysToLookBack = override.Pipeline.DaysToLookBack
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Channels) > 0 {
		base.Channels = override.Channels
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "videodigest.db",
		},
		Scheduler: SchedulerConfig{Interval: "24h", Timezone: defaultTimezone, location: tz},
		YouTube: YouTubeConfig{
			APIEndpoint:       "https://www.googleapis.com/youtube/v3",
			FeedEndpoint:      "https://www.youtube.com/feeds/videos.xml",
			WatchEndpoint:     "https://www.youtube.com",
			Language:          "en",
			RequestsPerSecond: 2,
		},
		OpenAI: OpenAIConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4-turbo",
			SystemPrompt: "You are a helpful assistant that summarizes YouTube videos accurately and concisely.",
		},
		Twitter: TwitterConfig{
			Endpoint: "https://api.twitter.com/2/tweets",
		},
		Pipeline: PipelineConfig{
			MaxVideosPerChannel: 3,
			MaxAttempts:         3,
			DaysToLookBack:      1,
		},
		Logging: LoggingConfig{Level: "info"},
		Channels: []ChannelConfig{
			{
				ID:                "UC_x5XG1OV2P6uZZ5FSM9Ttw",
				Name:              "Example Channel",
				Lister:            "api",
				SummaryStyle:      "concise",
				SummaryLength:     500,
				IncludeTimestamps: true,
			},
		},
	}
}
