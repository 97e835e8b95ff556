package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"videodigest/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetAbsentReturnsNil(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec, err := store.Get(context.Background(), "C1", "V1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for absent key, got %+v", rec)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

	want := domain.ProcessingRecord{
		ChannelID:    "C1",
		VideoID:      "V1",
		Title:        "First Video",
		Status:       domain.StatusSummarized,
		FailedStage:  domain.StagePublish,
		AttemptCount: 2,
		LastError:    "publish to twitter: upstream error",
		SummaryText:  "a short summary",
		PublishRefs:  []domain.PublishRef{{Destination: "telegram", Reference: "123"}},
		CreatedAt:    now,
		UpdatedAt:    now.Add(time.Minute),
	}
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "C1", "V1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}

	if got.Title != want.Title || got.Status != want.Status || got.FailedStage != want.FailedStage {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.AttemptCount != 2 || got.LastError != want.LastError || got.SummaryText != want.SummaryText {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.PublishRefs) != 1 || got.PublishRefs[0] != want.PublishRefs[0] {
		t.Errorf("publish refs mismatch: got %+v", got.PublishRefs)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps mismatch: got %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestPutUpsertsWithoutDuplicating(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

	rec := domain.ProcessingRecord{
		ChannelID: "C1", VideoID: "V1",
		Status:    domain.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("first put: %v", err)
	}

	rec.Status = domain.StatusPublished
	rec.PublishRefs = []domain.PublishRef{{Destination: "blog", Reference: "https://example.org/p/1"}}
	rec.UpdatedAt = now.Add(time.Hour)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("second put: %v", err)
	}

	records, err := store.List(ctx, "C1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single row after upsert, got %d", len(records))
	}
	if records[0].Status != domain.StatusPublished {
		t.Fatalf("expected PUBLISHED after update, got %s", records[0].Status)
	}
	// created_at is written once and preserved across updates.
	if !records[0].CreatedAt.Equal(now) {
		t.Fatalf("created_at changed on update: %v", records[0].CreatedAt)
	}
}

func TestListScopedToChannel(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

	for _, key := range []struct{ c, v string }{{"C1", "V1"}, {"C1", "V2"}, {"C2", "V9"}} {
		err := store.Put(ctx, domain.ProcessingRecord{
			ChannelID: key.c, VideoID: key.v,
			Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("put %s/%s: %v", key.c, key.v, err)
		}
	}

	records, err := store.List(ctx, "C1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for C1, got %d", len(records))
	}
}
