package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"videodigest/internal/domain"
	"videodigest/internal/infrastructure/httpkind"
	"videodigest/internal/ports"
)

// Telegram publishes video summaries to a chat via the bot API.
type Telegram struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Publisher = (*Telegram)(nil)

// NewTelegram registers bot token and chat identifier. apiBase is
// overridable for tests; empty means the public bot API.
func NewTelegram(apiBase, botToken, chatID string) *Telegram {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &Telegram{
		apiBase:  apiBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Name identifies the destination in publish references.
func (t *Telegram) Name() string {
	return "telegram"
}

// Publish posts a Markdown message and returns the message id.
func (t *Telegram) Publish(ctx context.Context, pub ports.Publication) (string, error) {
	if t.botToken == "" || t.chatID == "" {
		return "", fmt.Errorf("%w: telegram publisher misconfigured", domain.ErrAuth)
	}

	text := fmt.Sprintf("*%s*\n%s\n\n%s\n%s",
		pub.Video.Title, pub.ChannelName, pub.Summary, pub.Video.URL())

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send message: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("send message: %w", httpkind.FromStatus(resp.StatusCode, resp.Status))
	}

	var payload struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode telegram response: %v", domain.ErrUpstream, err)
	}
	if !payload.OK {
		return "", fmt.Errorf("%w: telegram rejected the message", domain.ErrUpstream)
	}

	return strconv.FormatInt(payload.Result.MessageID, 10), nil
}
