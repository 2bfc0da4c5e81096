package transcribe

import "github.com/callsight/callsight/internal/types"

// AttachSpeakers labels each segment with the diarization turn it
// overlaps most. Segments overlapping no turn keep an empty speaker.
// Turns are assumed ordered and non-overlapping.
func AttachSpeakers(tr *types.Transcript, turns []types.Turn) {
	if len(turns) == 0 {
		return
	}
	for i := range tr.Segments {
		tr.Segments[i].Speaker = dominantSpeaker(tr.Segments[i], turns)
	}
}

func dominantSpeaker(seg types.Segment, turns []types.Turn) string {
	best := ""
	var bestOverlap float64
	for _, turn := range turns {
		if turn.End <= seg.Start {
			continue
		}
		if turn.Start >= seg.End {
			break
		}
		overlap := min64(seg.End, turn.End) - max64(seg.Start, turn.Start)
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = turn.Speaker
		}
	}
	return best
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
