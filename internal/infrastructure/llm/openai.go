package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"videodigest/internal/config"
	"videodigest/internal/domain"
	"videodigest/internal/infrastructure/httpkind"
	"videodigest/internal/ports"
)

// Transcripts beyond this many characters are cut before prompting.
const maxPromptChars = 16000

// Client implements ports.Summarizer backed by OpenAI-compatible chat APIs.
type Client struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Summarize produces a summary of the transcript using the per-channel
// style and length settings.
func (c *Client) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return "", fmt.Errorf("%w: no transcript provided for summarization", domain.ErrInvalidInput)
	}

	return c.complete(ctx, safePrompt(c.systemPrompt), buildSummaryPrompt(req), 0.5, 1000)
}

// ComposeTeaser produces a tweet-sized blurb for the full summary. The
// caller appends the video URL and attribution, so maxChars excludes them.
func (c *Client) ComposeTeaser(ctx context.Context, summary, videoTitle, channelName string, maxChars int) (string, error) {
	if maxChars <= 50 {
		return "", fmt.Errorf("%w: not enough space for a meaningful teaser", domain.ErrInvalidInput)
	}

	prompt := fmt.Sprintf(
		"Create a concise and engaging tweet about this YouTube video that will make people want to watch it.\n"+
			"Video title: %s\nChannel: %s\nSummary: %s\n\n"+
			"The tweet must be no longer than %d characters as the video URL and attribution are added separately. "+
			"Do not include hashtags, the URL, or the channel name in your response.",
		videoTitle, channelName, summary, maxChars)

	teaser, err := c.complete(ctx, "You are a social media expert who creates engaging tweets.", prompt, 0.7, 100)
	if err != nil {
		return "", err
	}

	if len(teaser) > maxChars {
		teaser = teaser[:maxChars-3] + "..."
	}
	return teaser, nil
}

func buildSummaryPrompt(req ports.SummaryRequest) string {
	timestamps := "Do not include timestamps."
	if req.IncludeTimestamps {
		timestamps = "Include key timestamps for important points."
	}

	intro := ""
	if req.VideoTitle != "" && req.ChannelName != "" {
		intro = fmt.Sprintf("The video is titled '%s' from the channel '%s'. ", req.VideoTitle, req.ChannelName)
	}

	style := req.Style
	if style == "" {
		style = "concise"
	}
	maxWords := req.MaxWords
	if maxWords <= 0 {
		maxWords = 500
	}

	prompt := fmt.Sprintf(
		"%sSummarize the following YouTube video transcript in a %s style with a maximum of %d words. %s\n\nTRANSCRIPT:\n%s",
		intro, style, maxWords, timestamps, req.Transcript)

	if len(prompt) > maxPromptChars {
		prompt = prompt[:maxPromptChars] + "... [transcript truncated due to length]"
	}

	return prompt
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("%w: summarizer client misconfigured", domain.ErrAuth)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: completion request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion: %w", httpkind.FromStatus(resp.StatusCode, resp.Status))
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode completion response: %v", domain.ErrUpstream, err)
	}

	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", domain.ErrUpstream)
	}

	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a helpful assistant that summarizes YouTube videos accurately and concisely."
	}
	return prompt
}
