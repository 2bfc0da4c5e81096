package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/callsight/callsight/internal/vector"
)

// SQLiteStore is the default single-file backend.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS calls (
	call_id        TEXT PRIMARY KEY,
	source_path    TEXT NOT NULL,
	agent_id       TEXT,
	queue          TEXT,
	city           TEXT,
	call_type      TEXT,
	title          TEXT,
	language       TEXT,
	duration       REAL,
	transcript     TEXT,
	sentiment      TEXT,
	score          REAL,
	redacted_count INTEGER,
	flagged        INTEGER NOT NULL DEFAULT 0,
	stored_at      DATETIME NOT NULL,
	embedding      BLOB
);

CREATE INDEX IF NOT EXISTS idx_calls_stored_at ON calls(stored_at);
CREATE INDEX IF NOT EXISTS idx_calls_sentiment ON calls(sentiment);
`

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Upsert writes the record, replacing any prior row for the same call ID.
func (s *SQLiteStore) Upsert(rec *Record) error {
	_, err := s.db.Exec(`
	INSERT INTO calls (call_id, source_path, agent_id, queue, city, call_type, title,
		language, duration, transcript, sentiment, score, redacted_count, flagged,
		stored_at, embedding)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(call_id) DO UPDATE SET
		source_path    = excluded.source_path,
		agent_id       = excluded.agent_id,
		queue          = excluded.queue,
		city           = excluded.city,
		call_type      = excluded.call_type,
		title          = excluded.title,
		language       = excluded.language,
		duration       = excluded.duration,
		transcript     = excluded.transcript,
		sentiment      = excluded.sentiment,
		score          = excluded.score,
		redacted_count = excluded.redacted_count,
		flagged        = excluded.flagged,
		stored_at      = excluded.stored_at,
		embedding      = excluded.embedding
	`,
		rec.CallID, rec.SourcePath, rec.AgentID, rec.Queue, rec.City, rec.CallType,
		rec.Title, rec.Language, rec.Duration, rec.Transcript, rec.Sentiment,
		rec.Score, rec.RedactedCount, boolToInt(rec.Flagged), rec.StoredAt,
		vector.EncodeVector(rec.Embedding))
	if err != nil {
		return fmt.Errorf("upsert call %s: %w", rec.CallID, err)
	}
	return nil
}

// Get retrieves one record by call ID.
func (s *SQLiteStore) Get(callID string) (*Record, error) {
	row := s.db.QueryRow(`
	SELECT call_id, source_path, agent_id, queue, city, call_type, title,
		language, duration, transcript, sentiment, score, redacted_count,
		flagged, stored_at, embedding
	FROM calls WHERE call_id = ?`, callID)
	return scanRecord(row)
}

// List returns the most recently stored records.
func (s *SQLiteStore) List(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
	SELECT call_id, source_path, agent_id, queue, city, call_type, title,
		language, duration, transcript, sentiment, score, redacted_count,
		flagged, stored_at, embedding
	FROM calls ORDER BY stored_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Embeddings returns all stored vectors for similarity search.
func (s *SQLiteStore) Embeddings() ([]vector.Entry, error) {
	rows, err := s.db.Query(`SELECT call_id, embedding FROM calls WHERE embedding IS NOT NULL`)
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

// Stats aggregates counts for the dashboard.
func (s *SQLiteStore) Stats() (Stats, error) {
	stats := Stats{BySentiment: make(map[string]int)}

	row := s.db.QueryRow(`
	SELECT COUNT(*), COALESCE(SUM(duration), 0), COALESCE(SUM(flagged), 0) FROM calls`)
	if err := row.Scan(&stats.TotalCalls, &stats.TotalDuration, &stats.FlaggedCalls); err != nil {
		return stats, fmt.Errorf("aggregate stats: %w", err)
	}

	rows, err := s.db.Query(`SELECT sentiment, COUNT(*) FROM calls GROUP BY sentiment`)
	if err != nil {
		return stats, fmt.Errorf("sentiment stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label sql.NullString
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return stats, err
		}
		if label.Valid && label.String != "" {
			stats.BySentiment[label.String] = n
		}
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var agentID, queue, city, callType, title, language, transcript, sentiment sql.NullString
	var duration, score sql.NullFloat64
	var redactedCount, flagged sql.NullInt64
	var blob []byte

	err := row.Scan(&rec.CallID, &rec.SourcePath, &agentID, &queue, &city, &callType,
		&title, &language, &duration, &transcript, &sentiment, &score,
		&redactedCount, &flagged, &rec.StoredAt, &blob)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan call: %w", err)
	}

	rec.AgentID = agentID.String
	rec.Queue = queue.String
	rec.City = city.String
	rec.CallType = callType.String
	rec.Title = title.String
	rec.Language = language.String
	rec.Transcript = transcript.String
	rec.Sentiment = sentiment.String
	rec.Duration = duration.Float64
	rec.Score = score.Float64
	rec.RedactedCount = int(redactedCount.Int64)
	rec.Flagged = flagged.Int64 != 0

	if len(blob) > 0 {
		vec, err := vector.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", rec.CallID, err)
		}
		rec.Embedding = vec
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
