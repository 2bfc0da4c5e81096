package transcribe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/callsight/callsight/internal/types"
)

func TestWriteAllAndReadBack(t *testing.T) {
	dir := t.TempDir()
	tr := &types.Transcript{
		CallID:   "call-42",
		Language: "en",
		Duration: 6,
		Segments: []types.Segment{
			{Start: 0, End: 3, Text: "hello", Speaker: "SPEAKER_00"},
			{Start: 3, End: 6, Text: "hi", Speaker: "SPEAKER_01"},
		},
	}

	paths, err := WriteAll(tr, filepath.Join(dir, "nested"), "call-42")
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	for _, p := range []string{paths.Text, paths.JSON, paths.SRT} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing artifact %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", p)
		}
	}

	back, err := ReadTranscript(paths.JSON)
	if err != nil {
		t.Fatalf("ReadTranscript: %v", err)
	}
	if back.CallID != tr.CallID || len(back.Segments) != 2 {
		t.Errorf("read back %+v, want %+v", back, tr)
	}
}

func TestReadTranscriptMissing(t *testing.T) {
	if _, err := ReadTranscript(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
