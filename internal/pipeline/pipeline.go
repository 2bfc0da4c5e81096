// Package pipeline chains the stage drivers into the sequential batch
// run. Records move ingested → diarized → transcribed → analyzed →
// stored; a failure parks that record and the rest keep going. No stage
// is retried automatically.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/callsight/callsight/internal/analyze"
	"github.com/callsight/callsight/internal/audio"
	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/diarize"
	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/sheet"
	"github.com/callsight/callsight/internal/store"
	"github.com/callsight/callsight/internal/transcribe"
	"github.com/callsight/callsight/internal/types"
	"github.com/callsight/callsight/internal/vector"
)

// Transcriber converts one normalized file to a transcript.
type Transcriber interface {
	Transcribe(audioPath string) (*types.Transcript, error)
}

// Archiver copies a stored record to external archive storage.
type Archiver interface {
	Upload(rec *store.Record) (string, error)
}

// Pipeline wires the stage drivers together. Any of the optional
// collaborators may be nil; the corresponding stage is then skipped for
// `run` and unavailable as a subcommand.
type Pipeline struct {
	cfg         *config.Config
	log         *logger.Logger
	ingester    *audio.Ingester
	diarizer    diarize.Provider
	transcriber Transcriber
	analyzer    *analyze.Analyzer
	db          store.Store
	embedder    vector.Embedder
	archiver    Archiver
	meta        map[string]sheet.Row
	force       bool
}

func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log, meta: map[string]sheet.Row{}}
}

func (p *Pipeline) WithIngester(ing *audio.Ingester) *Pipeline      { p.ingester = ing; return p }
func (p *Pipeline) WithDiarizer(d diarize.Provider) *Pipeline       { p.diarizer = d; return p }
func (p *Pipeline) WithTranscriber(t Transcriber) *Pipeline         { p.transcriber = t; return p }
func (p *Pipeline) WithAnalyzer(a *analyze.Analyzer) *Pipeline      { p.analyzer = a; return p }
func (p *Pipeline) WithStore(s store.Store) *Pipeline               { p.db = s; return p }
func (p *Pipeline) WithEmbedder(e vector.Embedder) *Pipeline        { p.embedder = e; return p }
func (p *Pipeline) WithMetadata(m map[string]sheet.Row) *Pipeline   { p.meta = m; return p }
func (p *Pipeline) WithArchiver(a Archiver) *Pipeline               { p.archiver = a; return p }
func (p *Pipeline) WithForce(force bool) *Pipeline                  { p.force = force; return p }

// Stage artifact directories under the work dir.
func (p *Pipeline) wavDir() string        { return filepath.Join(p.cfg.Paths.WorkDir, "wav") }
func (p *Pipeline) turnsDir() string      { return filepath.Join(p.cfg.Paths.WorkDir, "turns") }
func (p *Pipeline) transcriptDir() string { return filepath.Join(p.cfg.Paths.WorkDir, "transcripts") }
func (p *Pipeline) analysisDir() string   { return filepath.Join(p.cfg.Paths.WorkDir, "analysis") }

// Run executes the full pipeline over the source directory and returns
// every record, terminal state included. Records advance independently
// across the configured number of workers.
func (p *Pipeline) Run(sourceDir string) ([]*types.CallRecord, error) {
	audio.SweepTemp(p.cfg.Paths.WorkDir, time.Hour)

	records, err := p.ingester.Run(sourceDir)
	if err != nil {
		return nil, err
	}

	workers := p.cfg.Workers.Count
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan *types.CallRecord)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				p.Advance(rec)
			}
		}()
	}
	for _, rec := range records {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()

	return records, nil
}

// Advance pushes one ingested record through the remaining stages until
// it is stored or fails.
func (p *Pipeline) Advance(rec *types.CallRecord) {
	if rec.Status == types.StatusFailed {
		return
	}
	p.applyMetadata(rec)

	for _, step := range []struct {
		name string
		fn   func(*types.CallRecord) error
	}{
		{"diarize", p.DiarizeRecord},
		{"transcribe", p.TranscribeRecord},
		{"analyze", p.AnalyzeRecord},
		{"store", p.StoreRecord},
	} {
		if err := step.fn(rec); err != nil {
			p.log.WithCall(rec.ID).WithStage(step.name).
				WithField("error", err.Error()).Warn("stage failed, record parked")
			rec.Status = types.StatusFailed
			rec.FailedAt = step.name
			rec.Error = err.Error()
			return
		}
	}
}

func (p *Pipeline) applyMetadata(rec *types.CallRecord) {
	if row, ok := p.meta[rec.ID]; ok {
		rec.AgentID = row.AgentID
		rec.Queue = row.Queue
		rec.City = row.City
		rec.CallType = row.CallType
	}
}

// DiarizeRecord produces the speaker-turn artifact for one record.
func (p *Pipeline) DiarizeRecord(rec *types.CallRecord) error {
	if p.diarizer == nil {
		rec.Status = types.StatusDiarized
		return nil
	}
	if err := os.MkdirAll(p.turnsDir(), 0755); err != nil {
		return err
	}
	outPath := filepath.Join(p.turnsDir(), rec.ID+".json")
	if !p.force {
		if _, err := os.Stat(outPath); err == nil {
			rec.TurnsPath = outPath
			rec.Status = types.StatusDiarized
			return nil
		}
	}

	raw, err := p.diarizer.Diarize(rec.WavPath)
	if err != nil {
		return fmt.Errorf("diarization: %w", err)
	}
	turns := diarize.Normalize(raw, p.cfg.Diarize.MinTurn)
	if err := diarize.WriteTurns(outPath, turns); err != nil {
		return err
	}
	rec.TurnsPath = outPath
	rec.Status = types.StatusDiarized
	return nil
}

// TranscribeRecord produces the transcript artifacts for one record.
func (p *Pipeline) TranscribeRecord(rec *types.CallRecord) error {
	jsonPath := filepath.Join(p.transcriptDir(), rec.ID+".json")
	if !p.force {
		if _, err := os.Stat(jsonPath); err == nil {
			rec.TranscriptPath = jsonPath
			rec.Status = types.StatusTranscribed
			return nil
		}
	}

	tr, err := p.transcriber.Transcribe(rec.WavPath)
	if err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	tr.CallID = rec.ID

	if rec.TurnsPath != "" {
		turns, err := diarize.ReadTurns(rec.TurnsPath)
		if err != nil {
			return err
		}
		transcribe.AttachSpeakers(tr, turns)
	}

	paths, err := transcribe.WriteAll(tr, p.transcriptDir(), rec.ID)
	if err != nil {
		return err
	}
	rec.TranscriptPath = paths.JSON
	rec.Status = types.StatusTranscribed
	return nil
}

// AnalyzeRecord produces the analysis artifact for one record. A flagged
// analysis is not a failure; the record continues to Store unscored.
func (p *Pipeline) AnalyzeRecord(rec *types.CallRecord) error {
	if err := os.MkdirAll(p.analysisDir(), 0755); err != nil {
		return err
	}
	outPath := filepath.Join(p.analysisDir(), rec.ID+".json")
	if !p.force {
		if _, err := os.Stat(outPath); err == nil {
			rec.AnalysisPath = outPath
			rec.Status = types.StatusAnalyzed
			return nil
		}
	}

	tr, err := transcribe.ReadTranscript(rec.TranscriptPath)
	if err != nil {
		return err
	}
	res := p.analyzer.Analyze(tr)
	if res.Flagged {
		p.log.WithCall(rec.ID).WithStage("analyze").Warn("analysis flagged, storing unscored")
	}
	if err := analyze.WriteAnalysis(outPath, res); err != nil {
		return err
	}
	rec.AnalysisPath = outPath
	rec.Status = types.StatusAnalyzed
	return nil
}

// StoreRecord upserts the flattened row plus embedding. Re-running for
// the same call ID replaces the prior row.
func (p *Pipeline) StoreRecord(rec *types.CallRecord) error {
	tr, err := transcribe.ReadTranscript(rec.TranscriptPath)
	if err != nil {
		return err
	}

	row := &store.Record{
		CallID:     rec.ID,
		SourcePath: rec.SourcePath,
		AgentID:    rec.AgentID,
		Queue:      rec.Queue,
		City:       rec.City,
		CallType:   rec.CallType,
		Title:      rec.Title,
		Language:   tr.Language,
		Duration:   tr.Duration,
		Transcript: tr.Text(),
		StoredAt:   time.Now(),
	}

	if rec.AnalysisPath != "" {
		res, err := analyze.ReadAnalysis(rec.AnalysisPath)
		if err != nil {
			return err
		}
		row.Sentiment = res.Label
		row.Score = res.Score
		row.RedactedCount = res.RedactedCount
		row.Flagged = res.Flagged
		if res.Redacted != nil {
			row.Transcript = res.Redacted.Text()
		}
	}

	if p.embedder != nil {
		vec, err := p.embedder.Embed(row.Transcript)
		if err != nil {
			return fmt.Errorf("embedding: %w", err)
		}
		row.Embedding = vec
	}

	if err := p.db.Upsert(row); err != nil {
		return fmt.Errorf("storage write: %w", err)
	}
	rec.Status = types.StatusStored

	if p.archiver != nil {
		var url string
		for attempt := 1; attempt <= 3; attempt++ {
			url, err = p.archiver.Upload(row)
			if err == nil {
				break
			}
			p.log.WithCall(rec.ID).WithStage("store").
				WithField("error", err.Error()).Warnf("archive upload attempt %d/3 failed", attempt)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second)
			}
		}
		if err == nil && url != "" {
			p.log.WithCall(rec.ID).WithField("archive_url", url).Info("archived")
		}
	}
	return nil
}
