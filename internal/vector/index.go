package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Cosine returns the cosine similarity of two equal-length vectors, in
// [-1, 1]. Zero vectors score 0 against everything.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (na * nb), nil
}

// Hit is one similarity result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Entry pairs a stored vector with its record ID.
type Entry struct {
	ID     string
	Vector []float64
}

// Search ranks entries by cosine similarity to the query and returns the
// top k. Entries with mismatched dimensions are skipped rather than
// failing the query.
func Search(query []float64, entries []Entry, k int) []Hit {
	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		score, err := Cosine(query, e.Vector)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ID: e.ID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// EncodeVector packs a vector into little-endian float64 bytes for blob
// storage.
func EncodeVector(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeVector unpacks a blob written by EncodeVector.
func DecodeVector(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("vector blob length %d not a multiple of 8", len(data))
	}
	vec := make([]float64, len(data)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vec, nil
}
