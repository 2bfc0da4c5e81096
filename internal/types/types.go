package types

import "time"

// Call record status constants. Progression is linear; FAILED is terminal
// for that record only and never affects the rest of the batch.
const (
	StatusIngested    = "INGESTED"
	StatusDiarized    = "DIARIZED"
	StatusTranscribed = "TRANSCRIBED"
	StatusAnalyzed    = "ANALYZED"
	StatusStored      = "STORED"
	StatusFailed      = "FAILED"
)

// Sentiment labels produced by analysis.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// CallRecord tracks one recording through the pipeline. It is created at
// ingest and annotated by each following stage.
type CallRecord struct {
	ID         string    `json:"call_id"`
	SourcePath string    `json:"source_path"`
	Status     string    `json:"status"`
	FailedAt   string    `json:"failed_at,omitempty"` // stage name when Status is FAILED
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Metadata from the call sheet, if a row matched the call ID.
	AgentID  string `json:"agent_id,omitempty"`
	Queue    string `json:"queue,omitempty"`
	City     string `json:"city,omitempty"`
	CallType string `json:"call_type,omitempty"`

	// Tag metadata probed from the source file.
	Title string `json:"title,omitempty"`

	// Per-stage artifact paths.
	WavPath        string `json:"wav_path,omitempty"`
	TurnsPath      string `json:"turns_path,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	AnalysisPath   string `json:"analysis_path,omitempty"`
}

// Turn is one diarization interval: who spoke, from when to when.
// Speaker labels are stable within a single file only.
type Turn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Segment is a timestamped span of transcribed text.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the ordered segment sequence for one call. The text, JSON
// and SRT renderings are all derived from Segments; none is authoritative
// on its own.
type Transcript struct {
	CallID   string    `json:"call_id"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Text joins all segment texts into the plain transcript.
func (t *Transcript) Text() string {
	out := ""
	for i, seg := range t.Segments {
		if i > 0 {
			out += " "
		}
		out += seg.Text
	}
	return out
}

// SegmentScore is the per-segment sentiment result.
type SegmentScore struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analysis holds sentiment and redaction results for one transcript.
type Analysis struct {
	CallID        string         `json:"call_id"`
	Label         string         `json:"label"`
	Score         float64        `json:"score"`
	SegmentScores []SegmentScore `json:"segment_scores,omitempty"`
	Redacted      *Transcript    `json:"redacted,omitempty"`
	RedactedCount int            `json:"redacted_count"`
	Flagged       bool           `json:"flagged"` // analysis failed; transcript stored unscored
	AnalyzedAt    time.Time      `json:"analyzed_at"`
}
