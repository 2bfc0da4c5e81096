package analyze

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/callsight/callsight/internal/types"
)

// Scorer assigns a sentiment label and score to a span of text. Score is
// in [-1, 1], negative to positive.
type Scorer interface {
	Score(text string) (string, float64, error)
	Name() string
}

// HTTPScorer calls an external sentiment model endpoint. Transient
// failures are retried with exponential backoff inside the call; this is
// not a stage retry.
type HTTPScorer struct {
	url    string
	client *http.Client
}

func NewHTTPScorer(url string) *HTTPScorer {
	return &HTTPScorer{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPScorer) Name() string { return "http" }

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (s *HTTPScorer) Score(text string) (string, float64, error) {
	body, err := json.Marshal(sentimentRequest{Text: text})
	if err != nil {
		return "", 0, err
	}

	var out sentimentResponse
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("sentiment server error: %s", data)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("sentiment request rejected: %s", data))
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode sentiment response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, bo); err != nil {
		return "", 0, err
	}
	return out.Label, out.Score, nil
}

// LexiconScorer is the built-in fallback used when no model endpoint is
// configured. It counts polarity words; crude, but deterministic and
// dependency free.
type LexiconScorer struct{}

func (LexiconScorer) Name() string { return "lexicon" }

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "happy": true,
	"thanks": true, "thank": true, "perfect": true, "resolved": true,
	"helpful": true, "appreciate": true, "wonderful": true, "love": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "awful": true, "angry": true,
	"refund": true, "cancel": true, "broken": true, "worst": true,
	"complaint": true, "frustrated": true, "useless": true, "hate": true,
	"unacceptable": true, "disappointed": true,
}

func (LexiconScorer) Score(text string) (string, float64, error) {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if positiveWords[word] {
			pos++
		}
		if negativeWords[word] {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return types.SentimentNeutral, 0, nil
	}
	score := float64(pos-neg) / float64(total)
	switch {
	case score > 0.2:
		return types.SentimentPositive, score, nil
	case score < -0.2:
		return types.SentimentNegative, score, nil
	default:
		return types.SentimentNeutral, score, nil
	}
}
