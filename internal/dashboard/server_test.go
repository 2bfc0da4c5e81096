package dashboard

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/callsight/callsight/internal/store"
	"github.com/callsight/callsight/internal/vector"
)

type memStore struct {
	rows map[string]*store.Record
}

func (m *memStore) Upsert(rec *store.Record) error { m.rows[rec.CallID] = rec; return nil }
func (m *memStore) Get(id string) (*store.Record, error) {
	return m.rows[id], nil
}
func (m *memStore) List(int) ([]*store.Record, error) {
	var out []*store.Record
	for _, r := range m.rows {
		out = append(out, r)
	}
	return out, nil
}
func (m *memStore) Embeddings() ([]vector.Entry, error) {
	var out []vector.Entry
	for id, r := range m.rows {
		if len(r.Embedding) > 0 {
			out = append(out, vector.Entry{ID: id, Vector: r.Embedding})
		}
	}
	return out, nil
}
func (m *memStore) Stats() (store.Stats, error) {
	return store.Stats{TotalCalls: len(m.rows), BySentiment: map[string]int{}}, nil
}
func (m *memStore) Close() error { return nil }

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	db := &memStore{rows: make(map[string]*store.Record)}
	embedder := vector.NewHashEmbedder(16)

	vec, _ := embedder.Embed("customer asked for a refund")
	db.rows["call-1"] = &store.Record{
		CallID:     "call-1",
		SourcePath: "/recordings/call-1.mp3",
		Language:   "en",
		Transcript: "customer asked for a refund",
		Sentiment:  "negative",
		StoredAt:   time.Now(),
		Embedding:  vec,
	}

	return New(db, embedder, NewLogBuffer()), db
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGetCall(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Test(httptest.NewRequest("GET", "/calls/call-1", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var rec store.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.CallID != "call-1" || rec.Sentiment != "negative" {
		t.Errorf("record = %+v", rec)
	}
}

func TestGetCallNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Test(httptest.NewRequest("GET", "/calls/nope", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetTranscript(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Test(httptest.NewRequest("GET", "/calls/call-1/transcript", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "customer asked for a refund" {
		t.Errorf("body = %q", body)
	}
}

func TestSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Test(httptest.NewRequest("GET", "/search?q=refund+request&k=5", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var hits []vector.Hit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "call-1" {
		t.Errorf("hits = %v", hits)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Test(httptest.NewRequest("GET", "/search", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchWithoutEmbedder(t *testing.T) {
	db := &memStore{rows: make(map[string]*store.Record)}
	srv := New(db, nil, nil)

	resp, err := srv.Test(httptest.NewRequest("GET", "/search?q=x", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 501 {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Test(httptest.NewRequest("GET", "/stats", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var stats store.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalCalls != 1 {
		t.Errorf("TotalCalls = %d, want 1", stats.TotalCalls)
	}
}
