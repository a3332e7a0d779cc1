// Package data provides the optional PostgreSQL history store for processed
// voice messages.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/data/pgxutil"
)

// HistoryRecord is the stored form of a processed voice message.
type HistoryRecord struct {
	RecordingSID string    `db:"recording_sid"`
	RecordingURL string    `db:"recording_url"`
	Origin       string    `db:"origin_identifier"`
	Transcript   string    `db:"transcript"`
	Summary      string    `db:"summary"`
	Keywords     string    `db:"keywords"`
	Status       string    `db:"status"`
	ErrorMessage string    `db:"error_message"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// HistoryRepo persists processed-message outcomes keyed by recording SID.
type HistoryRepo struct {
	DB *sql.DB
}

var _ core.HistoryRepository = (*HistoryRepo)(nil)

// NewHistoryRepo constructs a HistoryRepo.
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{DB: db}
}

// Upsert stores or updates the outcome of one processed recording. Records
// without a recording SID are inserted as new rows since there is no stable
// key to conflict on.
func (r *HistoryRepo) Upsert(ctx context.Context, rec core.ProcessedMessageRecord) error {
	if r == nil || r.DB == nil {
		return ErrHistoryNotConfigured
	}
	if strings.TrimSpace(rec.RecordingURL) == "" {
		return ErrRecordingURLRequired
	}

	if strings.TrimSpace(rec.RecordingSID) == "" {
		const insert = `
			INSERT INTO voice_message_results
				(recording_sid, recording_url, origin_identifier, transcript, summary, keywords, status, error_message, created_at, updated_at)
			VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6, $7, now(), now());`
		_, err := r.DB.ExecContext(ctx, insert,
			rec.RecordingURL, rec.Origin, rec.Transcript, rec.Summary, rec.Keywords, rec.Status, rec.ErrorMessage)
		if err != nil {
			return fmt.Errorf("insert voice_message_results: %w", MapDBError(err))
		}
		return nil
	}

	const upsert = `
		INSERT INTO voice_message_results
			(recording_sid, recording_url, origin_identifier, transcript, summary, keywords, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (recording_sid)
		DO UPDATE SET
			recording_url = EXCLUDED.recording_url,
			origin_identifier = EXCLUDED.origin_identifier,
			transcript = EXCLUDED.transcript,
			summary = EXCLUDED.summary,
			keywords = EXCLUDED.keywords,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			updated_at = now();`
	_, err := r.DB.ExecContext(ctx, upsert,
		rec.RecordingSID, rec.RecordingURL, rec.Origin, rec.Transcript, rec.Summary, rec.Keywords, rec.Status, rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("upsert voice_message_results: %w", MapDBError(err))
	}
	return nil
}

// GetByRecordingSID retrieves the stored outcome for a recording.
func (r *HistoryRepo) GetByRecordingSID(ctx context.Context, recordingSID string) (*HistoryRecord, error) {
	if r == nil || r.DB == nil {
		return nil, ErrHistoryNotConfigured
	}
	if strings.TrimSpace(recordingSID) == "" {
		return nil, ErrRecordingIDRequired
	}

	const query = `
		SELECT recording_sid, recording_url, origin_identifier, transcript, summary, keywords, status, error_message, created_at, updated_at
		FROM voice_message_results
		WHERE recording_sid = $1`

	var rec *HistoryRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, recordingSID)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[HistoryRecord])
		if err != nil {
			return err
		}
		rec = &row
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get voice_message_results: %w", MapDBError(err))
	}
	return rec, nil
}

// ListByOrigin retrieves stored outcomes for one origin, most recent first.
func (r *HistoryRepo) ListByOrigin(ctx context.Context, origin string, limit int) ([]*HistoryRecord, error) {
	if r == nil || r.DB == nil {
		return nil, ErrHistoryNotConfigured
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const query = `
		SELECT recording_sid, recording_url, origin_identifier, transcript, summary, keywords, status, error_message, created_at, updated_at
		FROM voice_message_results
		WHERE origin_identifier = $1
		ORDER BY updated_at DESC
		LIMIT $2`

	var out []*HistoryRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, origin, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[HistoryRecord])
		if err != nil {
			return err
		}
		for i := range collected {
			row := collected[i]
			out = append(out, &row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list voice_message_results: %w", MapDBError(err))
	}
	return out, nil
}
