package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"videodigest/internal/domain"
	"videodigest/internal/ports"
)

// SQLiteStore is the default ledger backend: a single local file, no
// external service, which suits a run-per-invocation job.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.RecordStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the ledger database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed_videos (
		channel_id    TEXT NOT NULL,
		video_id      TEXT NOT NULL,
		title         TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		failed_stage  TEXT NOT NULL DEFAULT '',
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error    TEXT NOT NULL DEFAULT '',
		summary_text  TEXT NOT NULL DEFAULT '',
		publish_refs  TEXT NOT NULL DEFAULT '[]',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		PRIMARY KEY (channel_id, video_id)
	)`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the record for the key, or (nil, nil) when absent.
func (s *SQLiteStore) Get(ctx context.Context, channelID, videoID string) (*domain.ProcessingRecord, error) {
	query, args, err := sq.Select(ledgerColumns...).
		From(ledgerTable).
		Where(sq.Eq{"channel_id": channelID, "video_id": videoID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rec, err := scanSQLiteRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s/%s: %w", channelID, videoID, err)
	}
	return rec, nil
}

// Put upserts the record. The write is committed before Put returns.
func (s *SQLiteStore) Put(ctx context.Context, rec domain.ProcessingRecord) error {
	refs, err := marshalRefs(rec.PublishRefs)
	if err != nil {
		return err
	}

	query, args, err := sq.Insert(ledgerTable).
		Columns(ledgerColumns...).
		Values(
			rec.ChannelID, rec.VideoID, rec.Title, string(rec.Status), string(rec.FailedStage),
			rec.AttemptCount, rec.LastError, rec.SummaryText, refs,
			rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record %s/%s: %w", rec.ChannelID, rec.VideoID, err)
	}
	return nil
}

// List returns all records for a channel, newest update first. Audit only.
func (s *SQLiteStore) List(ctx context.Context, channelID string) ([]domain.ProcessingRecord, error) {
	query, args, err := sq.Select(ledgerColumns...).
		From(ledgerTable).
		Where(sq.Eq{"channel_id": channelID}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records for %s: %w", channelID, err)
	}
	defer rows.Close()

	var records []domain.ProcessingRecord
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*domain.ProcessingRecord, error) {
	var (
		rec                  domain.ProcessingRecord
		status, stage, refs  string
		createdAt, updatedAt string
	)

	err := row.Scan(
		&rec.ChannelID, &rec.VideoID, &rec.Title, &status, &stage,
		&rec.AttemptCount, &rec.LastError, &rec.SummaryText, &refs,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.Status(status)
	rec.FailedStage = domain.Stage(stage)

	if rec.PublishRefs, err = unmarshalRefs(refs); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &rec, nil
}
