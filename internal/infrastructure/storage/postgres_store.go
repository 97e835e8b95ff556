package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"videodigest/internal/domain"
	"videodigest/internal/ports"
)

// PostgresStore keeps the ledger in Postgres for deployments that already
// run one.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore connects with the given DSN and bootstraps the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS processed_videos (
		channel_id    TEXT NOT NULL,
		video_id      TEXT NOT NULL,
		title         TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		failed_stage  TEXT NOT NULL DEFAULT '',
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error    TEXT NOT NULL DEFAULT '',
		summary_text  TEXT NOT NULL DEFAULT '',
		publish_refs  TEXT NOT NULL DEFAULT '[]',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (channel_id, video_id)
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Get returns the record for the key, or (nil, nil) when absent.
func (s *PostgresStore) Get(ctx context.Context, channelID, videoID string) (*domain.ProcessingRecord, error) {
	query, args, err := sq.Select(ledgerColumns...).
		From(ledgerTable).
		Where(sq.Eq{"channel_id": channelID, "video_id": videoID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rec, err := scanPostgresRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s/%s: %w", channelID, videoID, err)
	}
	return rec, nil
}

// Put upserts the record. The write is committed before Put returns.
func (s *PostgresStore) Put(ctx context.Context, rec domain.ProcessingRecord) error {
	refs, err := marshalRefs(rec.PublishRefs)
	if err != nil {
		return err
	}

	query, args, err := sq.Insert(ledgerTable).
		Columns(ledgerColumns...).
		Values(
			rec.ChannelID, rec.VideoID, rec.Title, string(rec.Status), string(rec.FailedStage),
			rec.AttemptCount, rec.LastError, rec.SummaryText, refs,
			rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
		).
		Suffix(upsertSuffix).
		PlaceholderFormat(sq.Dollar).
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
func (s *PostgresStore) List(ctx context.Context, channelID string) ([]domain.ProcessingRecord, error) {
	query, args, err := sq.Select(ledgerColumns...).
		From(ledgerTable).
		Where(sq.Eq{"channel_id": channelID}).
		OrderBy("updated_at DESC").
		PlaceholderFormat(sq.Dollar).
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
		rec, err := scanPostgresRecord(rows)
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

func scanPostgresRecord(row rowScanner) (*domain.ProcessingRecord, error) {
	var (
		rec                 domain.ProcessingRecord
		status, stage, refs string
	)

	err := row.Scan(
		&rec.ChannelID, &rec.VideoID, &rec.Title, &status, &stage,
		&rec.AttemptCount, &rec.LastError, &rec.SummaryText, &refs,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.Status(status)
	rec.FailedStage = domain.Stage(stage)

	if rec.PublishRefs, err = unmarshalRefs(refs); err != nil {
		return nil, err
	}

	return &rec, nil
}
