package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/types"
)

// Ingester converts every supported recording in a source directory to
// normalized WAV files in the work directory. Each file is handled
// independently; one unreadable input is reported and skipped, never
// aborting the rest.
type Ingester struct {
	normalizer *Normalizer
	outDir     string
	force      bool
	log        *logger.Logger
}

func NewIngester(normalizer *Normalizer, outDir string, force bool, log *logger.Logger) *Ingester {
	return &Ingester{normalizer: normalizer, outDir: outDir, force: force, log: log}
}

// Run ingests the whole source directory and returns one record per
// supported input, successful or not.
func (ing *Ingester) Run(sourceDir string) ([]*types.CallRecord, error) {
	if err := os.MkdirAll(ing.outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !ing.normalizer.Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	records := make([]*types.CallRecord, 0, len(names))
	for _, name := range names {
		records = append(records, ing.IngestFile(filepath.Join(sourceDir, name)))
	}

	ing.log.WithStage("ingest").Infof("ingested %d of %d files", countOK(records), len(records))
	return records, nil
}

// IngestFile normalizes a single recording and returns its call record.
func (ing *Ingester) IngestFile(sourcePath string) *types.CallRecord {
	rec := &types.CallRecord{
		ID:         CallID(sourcePath),
		SourcePath: sourcePath,
		Status:     types.StatusIngested,
		CreatedAt:  time.Now(),
		Title:      ProbeTitle(sourcePath),
	}

	outPath := filepath.Join(ing.outDir, rec.ID+".wav")
	if !ing.force {
		if _, err := os.Stat(outPath); err == nil {
			ing.log.WithCall(rec.ID).Debug("normalized output exists, skipping")
			rec.WavPath = outPath
			return rec
		}
	}

	if err := ing.normalizer.Normalize(sourcePath, outPath); err != nil {
		ing.log.WithCall(rec.ID).WithField("error", err.Error()).Warn("ingest failed")
		rec.Status = types.StatusFailed
		rec.FailedAt = "ingest"
		rec.Error = err.Error()
		return rec
	}

	rec.WavPath = outPath
	return rec
}

// CallID derives the call identifier from the source filename stem.
func CallID(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return sanitizeID(stem)
}

// sanitizeID replaces characters that would be awkward in filenames,
// database keys or URLs.
func sanitizeID(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	id := b.String()
	if len(id) > 100 {
		id = id[:100]
	}
	return id
}

func countOK(records []*types.CallRecord) int {
	n := 0
	for _, r := range records {
		if r.Status != types.StatusFailed {
			n++
		}
	}
	return n
}
