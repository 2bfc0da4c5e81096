package vector

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		want    float64
		wantErr bool
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1, false},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1, false},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0, false},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0, false},
		{"dimension mismatch", []float64{1}, []float64{1, 2}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	entries := []Entry{
		{ID: "far", Vector: []float64{-1, 0}},
		{ID: "near", Vector: []float64{1, 0.1}},
		{ID: "exact", Vector: []float64{1, 0}},
		{ID: "badshape", Vector: []float64{1}},
	}

	hits := Search([]float64{1, 0}, entries, 2)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "exact" || hits[1].ID != "near" {
		t.Errorf("ranking = %v, want exact then near", hits)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("scores not descending: %v", hits)
	}
}

func TestSearchNoLimit(t *testing.T) {
	entries := []Entry{{ID: "a", Vector: []float64{1}}, {ID: "b", Vector: []float64{2}}}
	if hits := Search([]float64{1}, entries, 0); len(hits) != 2 {
		t.Errorf("got %d hits, want all", len(hits))
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	vec := []float64{0, 1.5, -2.25, math.Pi}
	back, err := DecodeVector(EncodeVector(vec))
	if err != nil {
		t.Fatalf("DecodeVector: %v", err)
	}
	if len(back) != len(vec) {
		t.Fatalf("got %d values, want %d", len(back), len(vec))
	}
	for i := range vec {
		if back[i] != vec[i] {
			t.Errorf("value %d = %v, want %v", i, back[i], vec[i])
		}
	}
}

func TestDecodeVectorBadLength(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(64)

	a, err := e.Embed("the customer wants a refund")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed("the customer wants a refund")
	c, _ := e.Embed("completely different words entirely")

	if len(a) != 64 {
		t.Fatalf("dim = %d, want 64", len(a))
	}

	same, _ := Cosine(a, b)
	if math.Abs(same-1) > 1e-12 {
		t.Errorf("identical text similarity = %v, want 1", same)
	}
	diff, _ := Cosine(a, c)
	if diff >= same {
		t.Errorf("unrelated text scored %v, not below %v", diff, same)
	}

	var norm float64
	for _, v := range a {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Errorf("vector not unit length: %v", math.Sqrt(norm))
	}
}

func TestHashEmbedderEmptyText(t *testing.T) {
	vec, err := NewHashEmbedder(0).Embed("")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 256 {
		t.Errorf("default dim = %d, want 256", len(vec))
	}
	for _, v := range vec {
		if v != 0 {
			t.Errorf("empty text produced nonzero component %v", v)
		}
	}
}
