package audio

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// Normalizer transcodes source recordings to the waveform format the
// downstream models expect.
type Normalizer struct {
	SampleRate int
	Channels   int
	Formats    []string
}

// NewNormalizer creates a normalizer for the configured sample rate and
// channel count.
func NewNormalizer(sampleRate, channels int, formats []string) *Normalizer {
	if sampleRate == 0 {
		sampleRate = 16000
	}
	if channels == 0 {
		channels = 1
	}
	return &Normalizer{SampleRate: sampleRate, Channels: channels, Formats: formats}
}

// Normalize converts an audio file to PCM WAV at the configured rate and
// channel count. The output is written to a temporary name and renamed on
// success, so a failed conversion never leaves a partial file in place of
// a valid one.
func (n *Normalizer) Normalize(inputPath, outputPath string) error {
	tmpPath := filepath.Join(filepath.Dir(outputPath),
		fmt.Sprintf(".normalize_%s.wav", uuid.New().String()))

	cmd := exec.Command("ffmpeg",
		"-i", inputPath,
		"-ar", strconv.Itoa(n.SampleRate),
		"-ac", strconv.Itoa(n.Channels),
		"-c:a", "pcm_s16le",
		"-y",
		tmpPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, string(output))
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move normalized file: %w", err)
	}
	return nil
}

// Supported checks if the file extension is a supported audio format.
func (n *Normalizer) Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range n.Formats {
		if ext == format {
			return true
		}
	}
	return false
}

// ProbeTitle reads the embedded title tag of a recording, if any. Files
// without readable tags are not an error; the title is just empty.
func ProbeTitle(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(meta.Title())
}
