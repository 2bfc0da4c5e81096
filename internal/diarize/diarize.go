// Package diarize segments a normalized recording into ordered,
// non-overlapping speaker turns.
package diarize

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/callsight/callsight/internal/types"
)

// Provider is a diarization backend. Implementations run the model and
// return raw speaker turns; callers normalize and persist them.
type Provider interface {
	Diarize(audioPath string) ([]types.Turn, error)
	Name() string
}

// Normalize orders turns by start time, drops empty spans and clips
// overlaps so that the result is strictly non-overlapping. The later
// turn's start is moved up to the earlier turn's end; turns swallowed
// whole are dropped.
func Normalize(turns []types.Turn, minTurn float64) []types.Turn {
	out := make([]types.Turn, 0, len(turns))
	for _, t := range turns {
		if t.End > t.Start {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})

	result := out[:0]
	var lastEnd float64
	for _, t := range out {
		if t.Start < lastEnd {
			t.Start = lastEnd
		}
		if t.End-t.Start <= 0 || t.End-t.Start < minTurn {
			continue
		}
		result = append(result, t)
		lastEnd = t.End
	}
	return result
}

// Validate reports the first ordering or overlap violation, if any.
func Validate(turns []types.Turn) error {
	var lastEnd float64
	for i, t := range turns {
		if t.End <= t.Start {
			return fmt.Errorf("turn %d: empty span [%f, %f]", i, t.Start, t.End)
		}
		if t.Start < lastEnd {
			return fmt.Errorf("turn %d: overlaps previous (start %f < end %f)", i, t.Start, lastEnd)
		}
		lastEnd = t.End
	}
	return nil
}

// WriteTurns persists turns as a JSON artifact for the transcribe stage.
func WriteTurns(path string, turns []types.Turn) error {
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write turns: %w", err)
	}
	return nil
}

// ReadTurns loads a turns artifact written by WriteTurns.
func ReadTurns(path string) ([]types.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	var turns []types.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parse turns: %w", err)
	}
	return turns, nil
}
