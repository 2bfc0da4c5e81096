package transcribe

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/callsight/callsight/internal/types"
)

// Model sizes accepted by Whisper, smallest to largest.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

// Options selects the model-size/quality tradeoff and task for one
// transcription run.
type Options struct {
	Model    string // tiny, base, small, medium, large
	Language string // empty = auto-detect
	Task     string // "transcribe" or "translate"
	Device   string // empty = whisper's default
}

// ValidModel reports whether name is a known Whisper model size.
func ValidModel(name string) bool {
	for _, m := range ModelSizes {
		if m == name {
			return true
		}
	}
	return false
}

// WhisperTranscriber wraps Python's OpenAI Whisper CLI.
type WhisperTranscriber struct {
	pythonCmd string
	opts      Options
}

// NewWhisperTranscriber creates a transcriber for the given options.
func NewWhisperTranscriber(pythonCmd string, opts Options) (*WhisperTranscriber, error) {
	if pythonCmd == "" {
		pythonCmd = "python"
	}
	if opts.Model == "" {
		opts.Model = "medium"
	}
	if !ValidModel(opts.Model) {
		return nil, fmt.Errorf("unknown whisper model %q (want one of %s)",
			opts.Model, strings.Join(ModelSizes, ", "))
	}
	if opts.Task == "" {
		opts.Task = "transcribe"
	}
	if opts.Task != "transcribe" && opts.Task != "translate" {
		return nil, fmt.Errorf("unknown task %q (want transcribe or translate)", opts.Task)
	}
	return &WhisperTranscriber{pythonCmd: pythonCmd, opts: opts}, nil
}

// Transcribe processes one audio file and returns the transcript. The
// CLI writes its JSON output into a scratch directory which is read back
// and removed.
func (wt *WhisperTranscriber) Transcribe(audioPath string) (*types.Transcript, error) {
	tempDir := filepath.Join(os.TempDir(), "whisper_"+uuid.New().String())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("resolve audio path: %w", err)
	}

	args := []string{"-m", "whisper",
		absAudioPath,
		"--model", wt.opts.Model,
		"--task", wt.opts.Task,
		"--output_dir", tempDir,
		"--output_format", "json",
		"--fp16", "False",
	}
	if wt.opts.Language != "" {
		args = append(args, "--language", wt.opts.Language)
	}
	if wt.opts.Device != "" {
		args = append(args, "--device", wt.opts.Device)
	}

	cmd := exec.Command(wt.pythonCmd, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %v\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(tempDir, baseName+".json")

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var whisperOutput whisperJSON
	if err := json.Unmarshal(jsonData, &whisperOutput); err != nil {
		return nil, fmt.Errorf("parse whisper JSON: %w", err)
	}

	segments := make([]types.Segment, len(whisperOutput.Segments))
	for i, seg := range whisperOutput.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	tr := &types.Transcript{
		Language: whisperOutput.Language,
		Duration: duration,
		Segments: segments,
	}
	if tr.Language == "ar" {
		NormalizeArabic(tr)
	}
	return tr, nil
}

// whisperJSON matches Python Whisper's JSON output format.
type whisperJSON struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}
