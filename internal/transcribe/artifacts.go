package transcribe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/callsight/callsight/internal/types"
)

// ArtifactPaths are the three on-disk renderings for one transcript.
type ArtifactPaths struct {
	Text string
	JSON string
	SRT  string
}

// WriteAll persists the transcript as text, JSON and SRT under dir, named
// by stem. The JSON artifact is the one downstream stages read.
func WriteAll(tr *types.Transcript, dir, stem string) (ArtifactPaths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ArtifactPaths{}, fmt.Errorf("create output dir: %w", err)
	}
	paths := ArtifactPaths{
		Text: filepath.Join(dir, stem+".txt"),
		JSON: filepath.Join(dir, stem+".json"),
		SRT:  filepath.Join(dir, stem+".srt"),
	}

	if err := os.WriteFile(paths.Text, []byte(RenderText(tr)), 0644); err != nil {
		return ArtifactPaths{}, fmt.Errorf("write text: %w", err)
	}
	data, err := RenderJSON(tr)
	if err != nil {
		return ArtifactPaths{}, err
	}
	if err := os.WriteFile(paths.JSON, data, 0644); err != nil {
		return ArtifactPaths{}, fmt.Errorf("write json: %w", err)
	}
	if err := os.WriteFile(paths.SRT, []byte(RenderSRT(tr)), 0644); err != nil {
		return ArtifactPaths{}, fmt.Errorf("write srt: %w", err)
	}
	return paths, nil
}

// ReadTranscript loads the canonical JSON artifact.
func ReadTranscript(path string) (*types.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return ParseJSON(data)
}
