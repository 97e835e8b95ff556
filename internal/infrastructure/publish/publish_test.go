package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"videodigest/internal/domain"
	"videodigest/internal/ports"
)

func publication() ports.Publication {
	return ports.Publication{
		Summary:     "A helpful summary of the video.",
		Video:       domain.VideoCandidate{VideoID: "V1", ChannelID: "C1", Title: "First Video"},
		ChannelName: "Test Channel",
	}
}

type staticComposer struct{ text string }

func (c staticComposer) ComposeTeaser(ctx context.Context, summary, videoTitle, channelName string, maxChars int) (string, error) {
	return c.text, nil
}

func TestTwitterPublish(t *testing.T) {
	t.Parallel()

	var gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotText = payload.Text

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"tweet-1"}}`))
	}))
	defer server.Close()

	twitter := NewTwitter(server.URL, "tok", staticComposer{text: "Watch this!"})
	ref, err := twitter.Publish(context.Background(), publication())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ref != "tweet-1" {
		t.Fatalf("expected tweet id as reference, got %q", ref)
	}
	if !strings.Contains(gotText, "Watch this!") || !strings.Contains(gotText, "https://youtu.be/V1") {
		t.Fatalf("tweet text missing teaser or url: %q", gotText)
	}
	if !strings.Contains(gotText, "Test Channel") {
		t.Fatalf("tweet text missing attribution: %q", gotText)
	}
	if len(gotText) > tweetMaxChars {
		t.Fatalf("tweet exceeds %d chars: %d", tweetMaxChars, len(gotText))
	}
}

func TestTwitterTruncatesWithoutComposer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if len(payload.Text) > tweetMaxChars {
			t.Errorf("tweet exceeds %d chars: %d", tweetMaxChars, len(payload.Text))
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"tweet-2"}}`))
	}))
	defer server.Close()

	pub := publication()
	pub.Summary = strings.Repeat("verbose ", 100)

	twitter := NewTwitter(server.URL, "tok", nil)
	if _, err := twitter.Publish(context.Background(), pub); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestTwitterErrorKinds(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	twitter := NewTwitter(server.URL, "tok", nil)
	_, err := twitter.Publish(context.Background(), publication())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestTwitterMisconfigured(t *testing.T) {
	t.Parallel()

	twitter := NewTwitter("http://unused", "", nil)
	_, err := twitter.Publish(context.Background(), publication())
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestTelegramPublish(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/bottok/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("chat_id") != "42" {
			t.Errorf("unexpected chat_id %q", r.PostForm.Get("chat_id"))
		}
		if !strings.Contains(r.PostForm.Get("text"), "First Video") {
			t.Errorf("message missing title: %q", r.PostForm.Get("text"))
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":99}}`))
	}))
	defer server.Close()

	telegram := NewTelegram(server.URL, "tok", "42")
	ref, err := telegram.Publish(context.Background(), publication())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ref != "99" {
		t.Fatalf("expected message id as reference, got %q", ref)
	}
}

func TestBlogPublishPrefersURL(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["title"] != "First Video" || payload["video_url"] != "https://youtu.be/V1" {
			t.Errorf("unexpected payload: %+v", payload)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p-1","url":"https://blog.example.org/p/1"}`))
	}))
	defer server.Close()

	blog := NewBlog(server.URL, "tok")
	ref, err := blog.Publish(context.Background(), publication())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ref != "https://blog.example.org/p/1" {
		t.Fatalf("expected post url as reference, got %q", ref)
	}
}

func TestBlogErrorKinds(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	blog := NewBlog(server.URL, "bad")
	_, err := blog.Publish(context.Background(), publication())
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}
