// Package storage provides the durable processing ledger. Records are
// created once per (channel_id, video_id), updated on stage transitions,
// and never deleted.
package storage

import (
	"encoding/json"
	"fmt"

	"videodigest/internal/domain"
)

const ledgerTable = "processed_videos"

var ledgerColumns = []string{
	"channel_id", "video_id", "title", "status", "failed_stage",
	"attempt_count", "last_error", "summary_text", "publish_refs",
	"created_at", "updated_at",
}

func marshalRefs(refs []domain.PublishRef) (string, error) {
	if len(refs) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("marshal publish refs: %w", err)
	}
	return string(raw), nil
}

func unmarshalRefs(raw string) ([]domain.PublishRef, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var refs []domain.PublishRef
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, fmt.Errorf("unmarshal publish refs: %w", err)
	}
	return refs, nil
}

const upsertSuffix = `ON CONFLICT (channel_id, video_id) DO UPDATE SET
	title = excluded.title,
	status = excluded.status,
	failed_stage = excluded.failed_stage,
	attempt_count = excluded.attempt_count,
	last_error = excluded.last_error,
	summary_text = excluded.summary_text,
	publish_refs = excluded.publish_refs,
	updated_at = excluded.updated_at`
