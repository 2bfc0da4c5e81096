package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/callsight/callsight/internal/types"
)

// Discover rebuilds call records from the artifacts already on disk, so
// each stage subcommand can run as its own process over the work dir.
// The wav artifact anchors the record; later artifacts attach if present.
func (p *Pipeline) Discover() ([]*types.CallRecord, error) {
	entries, err := os.ReadDir(p.wavDir())
	if err != nil {
		return nil, fmt.Errorf("read work dir (run ingest first): %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wav") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".wav"))
	}
	sort.Strings(ids)

	records := make([]*types.CallRecord, 0, len(ids))
	for _, id := range ids {
		rec := &types.CallRecord{
			ID:        id,
			Status:    types.StatusIngested,
			CreatedAt: time.Now(),
			WavPath:   filepath.Join(p.wavDir(), id+".wav"),
		}
		if path := existing(filepath.Join(p.turnsDir(), id+".json")); path != "" {
			rec.TurnsPath = path
			rec.Status = types.StatusDiarized
		}
		if path := existing(filepath.Join(p.transcriptDir(), id+".json")); path != "" {
			rec.TranscriptPath = path
			rec.Status = types.StatusTranscribed
		}
		if path := existing(filepath.Join(p.analysisDir(), id+".json")); path != "" {
			rec.AnalysisPath = path
			rec.Status = types.StatusAnalyzed
		}
		p.applyMetadata(rec)
		records = append(records, rec)
	}
	return records, nil
}

func existing(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
