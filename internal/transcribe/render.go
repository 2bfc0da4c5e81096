package transcribe

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/callsight/callsight/internal/types"
)

// The three output formats are lossless re-renderings of the same segment
// sequence. RenderSRT output parses back with ParseSRT to the same
// start/end/text tuples.

// RenderText renders the transcript as plain text, one segment per line.
func RenderText(tr *types.Transcript) string {
	var b strings.Builder
	for _, seg := range tr.Segments {
		if seg.Speaker != "" {
			b.WriteString(seg.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderJSON renders the transcript as indented JSON.
func RenderJSON(tr *types.Transcript) ([]byte, error) {
	return json.MarshalIndent(tr, "", "  ")
}

// ParseJSON decodes a transcript artifact written by RenderJSON.
func ParseJSON(data []byte) (*types.Transcript, error) {
	var tr types.Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("parse transcript JSON: %w", err)
	}
	return &tr, nil
}

// RenderSRT renders the segments in SubRip subtitle format.
func RenderSRT(tr *types.Transcript) string {
	var b strings.Builder
	for i, seg := range tr.Segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End))
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// ParseSRT decodes SubRip back into the segment sequence. Speaker labels
// are not carried by SRT; only timing and text round-trip.
func ParseSRT(r io.Reader) ([]types.Segment, error) {
	var segments []types.Segment
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// index line
		if _, err := strconv.Atoi(line); err != nil {
			return nil, fmt.Errorf("expected subtitle index, got %q", line)
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected end of input after index %s", line)
		}
		timing := strings.TrimSpace(scanner.Text())
		parts := strings.Split(timing, " --> ")
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad timing line %q", timing)
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, err
		}
		var text []string
		for scanner.Scan() {
			t := strings.TrimSpace(scanner.Text())
			if t == "" {
				break
			}
			text = append(text, t)
		}
		segments = append(segments, types.Segment{
			Start: start,
			End:   end,
			Text:  strings.Join(text, " "),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan srt: %w", err)
	}
	return segments, nil
}

// FormatTimestamp converts seconds to the SRT timestamp form HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	m := millis % 3600000 / 60000
	s := millis % 60000 / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp converts an SRT timestamp back to seconds.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	var h, m, s, ms int
	if _, err := fmt.Sscanf(ts, "%02d:%02d:%02d,%03d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("bad timestamp %q: %w", ts, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}
