// Package vector computes transcript embeddings and answers similarity
// queries over them.
package vector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Embed(text string) ([]float64, error)
	Dim() int
}

// HTTPEmbedder calls an external embedding model endpoint.
type HTTPEmbedder struct {
	url    string
	dim    int
	client *http.Client
}

func NewHTTPEmbedder(url string, dim int) *HTTPEmbedder {
	return &HTTPEmbedder{
		url:    url,
		dim:    dim,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *HTTPEmbedder) Dim() int { return e.dim }

func (e *HTTPEmbedder) Embed(text string) ([]float64, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		resp, err := e.client.Post(e.url, "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("embedding server error: %s", data)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("embedding request rejected: %s", data))
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode embedding response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned no vector")
	}
	return out.Embedding, nil
}

// HashEmbedder is the offline fallback: a hashed bag-of-words projection.
// Not semantically meaningful like a learned model, but deterministic,
// and near-duplicate transcripts still land close together.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Dim() int { return e.dim }

func (e *HashEmbedder) Embed(text string) ([]float64, error) {
	vec := make([]float64, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dim))
		sign := 1.0
		if sum&0x80000000 != 0 {
			sign = -1.0
		}
		vec[idx] += sign
	}
	// L2-normalize so cosine reduces to a dot product downstream.
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
