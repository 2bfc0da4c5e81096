// Package analyze scores transcripts for sentiment and redacts PII.
package analyze

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/callsight/callsight/internal/types"
)

// Analyzer runs sentiment scoring and PII redaction over one transcript.
type Analyzer struct {
	scorer   Scorer
	redactor *Redactor
}

func NewAnalyzer(scorer Scorer, redactor *Redactor) *Analyzer {
	return &Analyzer{scorer: scorer, redactor: redactor}
}

// Analyze produces the analysis result for a transcript. Scoring failure
// flags the result instead of failing the call: the redacted transcript
// still goes downstream, just unscored.
func (a *Analyzer) Analyze(tr *types.Transcript) *types.Analysis {
	res := &types.Analysis{
		CallID:     tr.CallID,
		AnalyzedAt: time.Now(),
	}

	redacted, count := a.redactor.RedactTranscript(tr)
	res.Redacted = redacted
	res.RedactedCount = count

	label, score, err := a.scorer.Score(tr.Text())
	if err != nil {
		res.Flagged = true
		return res
	}
	res.Label = label
	res.Score = score

	for i, seg := range tr.Segments {
		l, s, err := a.scorer.Score(seg.Text)
		if err != nil {
			res.Flagged = true
			break
		}
		res.SegmentScores = append(res.SegmentScores, types.SegmentScore{
			Index: i,
			Label: l,
			Score: s,
		})
	}
	return res
}

// WriteAnalysis persists the analysis artifact as JSON.
func WriteAnalysis(path string, res *types.Analysis) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return nil
}

// ReadAnalysis loads an analysis artifact.
func ReadAnalysis(path string) (*types.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis: %w", err)
	}
	var res types.Analysis
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}
	return &res, nil
}
