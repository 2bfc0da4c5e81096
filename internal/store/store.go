// Package store persists finished call records and their embeddings.
package store

import (
	"time"

	"github.com/callsight/callsight/internal/vector"
)

// Record is the flattened row persisted per call. Immutable once written
// except by re-running the pipeline, which replaces it wholesale.
type Record struct {
	CallID        string    `json:"call_id"`
	SourcePath    string    `json:"source_path"`
	AgentID       string    `json:"agent_id,omitempty"`
	Queue         string    `json:"queue,omitempty"`
	City          string    `json:"city,omitempty"`
	CallType      string    `json:"call_type,omitempty"`
	Title         string    `json:"title,omitempty"`
	Language      string    `json:"language"`
	Duration      float64   `json:"duration"`
	Transcript    string    `json:"transcript"`
	Sentiment     string    `json:"sentiment"`
	Score         float64   `json:"score"`
	RedactedCount int       `json:"redacted_count"`
	Flagged       bool      `json:"flagged"`
	StoredAt      time.Time `json:"stored_at"`
	Embedding     []float64 `json:"-"`
}

// Stats is the aggregate view the dashboard shows.
type Stats struct {
	TotalCalls    int            `json:"total_calls"`
	BySentiment   map[string]int `json:"by_sentiment"`
	FlaggedCalls  int            `json:"flagged_calls"`
	TotalDuration float64        `json:"total_duration_seconds"`
}

// Store is the persistence backend. Upsert is idempotent per call ID:
// storing the same call again replaces the prior row, never duplicates it.
type Store interface {
	Upsert(rec *Record) error
	Get(callID string) (*Record, error)
	List(limit int) ([]*Record, error)
	Embeddings() ([]vector.Entry, error)
	Stats() (Stats, error)
	Close() error
}
