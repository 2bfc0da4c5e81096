package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callsight/callsight/internal/vector"
)

// PostgresStore backs the same interface with PostgreSQL for shared
// deployments. Selected by store.driver: postgres in the settings file.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS calls (
	call_id        TEXT PRIMARY KEY,
	source_path    TEXT NOT NULL,
	agent_id       TEXT,
	queue          TEXT,
	city           TEXT,
	call_type      TEXT,
	title          TEXT,
	language       TEXT,
	duration       DOUBLE PRECISION,
	transcript     TEXT,
	sentiment      TEXT,
	score          DOUBLE PRECISION,
	redacted_count INTEGER,
	flagged        BOOLEAN NOT NULL DEFAULT FALSE,
	stored_at      TIMESTAMPTZ NOT NULL,
	embedding      BYTEA
);

CREATE INDEX IF NOT EXISTS idx_calls_stored_at ON calls(stored_at);
CREATE INDEX IF NOT EXISTS idx_calls_sentiment ON calls(sentiment);
`

// NewPostgresStore connects with the given DSN and ensures the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Upsert(rec *Record) error {
	_, err := s.pool.Exec(context.Background(), `
	INSERT INTO calls (call_id, source_path, agent_id, queue, city, call_type, title,
		language, duration, transcript, sentiment, score, redacted_count, flagged,
		stored_at, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (call_id) DO UPDATE SET
		source_path    = EXCLUDED.source_path,
		agent_id       = EXCLUDED.agent_id,
		queue          = EXCLUDED.queue,
		city           = EXCLUDED.city,
		call_type      = EXCLUDED.call_type,
		title          = EXCLUDED.title,
		language       = EXCLUDED.language,
		duration       = EXCLUDED.duration,
		transcript     = EXCLUDED.transcript,
		sentiment      = EXCLUDED.sentiment,
		score          = EXCLUDED.score,
		redacted_count = EXCLUDED.redacted_count,
		flagged        = EXCLUDED.flagged,
		stored_at      = EXCLUDED.stored_at,
		embedding      = EXCLUDED.embedding
	`,
		rec.CallID, rec.SourcePath, rec.AgentID, rec.Queue, rec.City, rec.CallType,
		rec.Title, rec.Language, rec.Duration, rec.Transcript, rec.Sentiment,
		rec.Score, rec.RedactedCount, rec.Flagged, rec.StoredAt,
		vector.EncodeVector(rec.Embedding))
	if err != nil {
		return fmt.Errorf("upsert call %s: %w", rec.CallID, err)
	}
	return nil
}

func (s *PostgresStore) Get(callID string) (*Record, error) {
	row := s.pool.QueryRow(context.Background(), `
	SELECT call_id, source_path, agent_id, queue, city, call_type, title,
		language, duration, transcript, sentiment, score, redacted_count,
		flagged, stored_at, embedding
	FROM calls WHERE call_id = $1`, callID)

	rec, err := scanPgRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) List(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(context.Background(), `
	SELECT call_id, source_path, agent_id, queue, city, call_type, title,
		language, duration, transcript, sentiment, score, redacted_count,
		flagged, stored_at, embedding
	FROM calls ORDER BY stored_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Embeddings() ([]vector.Entry, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT call_id, embedding FROM calls WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var entries []vector.Entry
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vec, err := vector.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", id, err)
		}
		if len(vec) == 0 {
			continue
		}
		entries = append(entries, vector.Entry{ID: id, Vector: vec})
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Stats() (Stats, error) {
	ctx := context.Background()
	stats := Stats{BySentiment: make(map[string]int)}

	row := s.pool.QueryRow(ctx, `
	SELECT COUNT(*), COALESCE(SUM(duration), 0),
		COALESCE(SUM(CASE WHEN flagged THEN 1 ELSE 0 END), 0)
	FROM calls`)
	if err := row.Scan(&stats.TotalCalls, &stats.TotalDuration, &stats.FlaggedCalls); err != nil {
		return stats, fmt.Errorf("aggregate stats: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT sentiment, COUNT(*) FROM calls GROUP BY sentiment`)
	if err != nil {
		return stats, fmt.Errorf("sentiment stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label *string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return stats, err
		}
		if label != nil && *label != "" {
			stats.BySentiment[*label] = n
		}
	}
	return stats, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var agentID, queue, city, callType, title, language, transcript, sentiment *string
	var duration, score *float64
	var redactedCount *int
	var blob []byte

	err := row.Scan(&rec.CallID, &rec.SourcePath, &agentID, &queue, &city, &callType,
		&title, &language, &duration, &transcript, &sentiment, &score,
		&redactedCount, &rec.Flagged, &rec.StoredAt, &blob)
	if err != nil {
		return nil, err
	}

	setIf := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setIf(&rec.AgentID, agentID)
	setIf(&rec.Queue, queue)
	setIf(&rec.City, city)
	setIf(&rec.CallType, callType)
	setIf(&rec.Title, title)
	setIf(&rec.Language, language)
	setIf(&rec.Transcript, transcript)
	setIf(&rec.Sentiment, sentiment)
	if duration != nil {
		rec.Duration = *duration
	}
	if score != nil {
		rec.Score = *score
	}
	if redactedCount != nil {
		rec.RedactedCount = *redactedCount
	}

	if len(blob) > 0 {
		vec, err := vector.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", rec.CallID, err)
		}
		rec.Embedding = vec
	}
	return &rec, nil
}
