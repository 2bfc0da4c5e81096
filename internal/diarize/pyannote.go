package diarize

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/callsight/callsight/internal/types"
)

// PyannoteProvider shells out to the pyannote.audio CLI and parses its
// RTTM output. The model weights are whatever the named pipeline resolves
// to; this wrapper only drives the process and reads files back.
type PyannoteProvider struct {
	pythonCmd string
	model     string
}

func NewPyannoteProvider(pythonCmd, model string) *PyannoteProvider {
	if pythonCmd == "" {
		pythonCmd = "python"
	}
	if model == "" {
		model = "pyannote/speaker-diarization"
	}
	return &PyannoteProvider{pythonCmd: pythonCmd, model: model}
}

func (p *PyannoteProvider) Name() string { return "pyannote" }

// Diarize runs the pipeline against one audio file and returns raw turns.
func (p *PyannoteProvider) Diarize(audioPath string) ([]types.Turn, error) {
	tempDir := filepath.Join(os.TempDir(), "diarize_"+uuid.New().String())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("resolve audio path: %w", err)
	}

	cmd := exec.Command(p.pythonCmd, "-m", "pyannote.audio",
		"pipeline", p.model,
		absAudioPath,
		"--output", tempDir,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pyannote failed: %v\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	rttmPath := filepath.Join(tempDir, baseName+".rttm")

	f, err := os.Open(rttmPath)
	if err != nil {
		return nil, fmt.Errorf("read diarization output: %w", err)
	}
	defer f.Close()

	return ParseRTTM(f)
}

// ParseRTTM decodes SPEAKER lines from an RTTM stream into turns.
// RTTM fields: type file chan onset duration ortho stype speaker conf slat
func ParseRTTM(r io.Reader) ([]types.Turn, error) {
	var turns []types.Turn
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 || fields[0] != "SPEAKER" {
			continue
		}
		onset, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad onset %q: %w", fields[3], err)
		}
		duration, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("bad duration %q: %w", fields[4], err)
		}
		turns = append(turns, types.Turn{
			Start:   onset,
			End:     onset + duration,
			Speaker: fields[7],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan rttm: %w", err)
	}
	return turns, nil
}
