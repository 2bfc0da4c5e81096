package transcribe

import (
	"strings"
	"testing"

	"github.com/callsight/callsight/internal/types"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{59.999, "00:00:59,999"},
		{60, "00:01:00,000"},
		{3599.5, "00:59:59,500"},
		{3600, "01:00:00,000"},
		{3661.042, "01:01:01,042"},
		{7325.25, "02:02:05,250"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"00:00:00,000", 0, false},
		{"00:00:01,500", 1.5, false},
		{"01:01:01,042", 3661.042, false},
		{" 00:01:00,000 ", 60, false},
		{"garbage", 0, true},
		{"00:00:01", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSRTRoundTrip(t *testing.T) {
	tr := &types.Transcript{
		Language: "en",
		Segments: []types.Segment{
			{Start: 0, End: 2.5, Text: "Hello, thanks for calling."},
			{Start: 2.5, End: 6, Text: "I need help with my account."},
			{Start: 6, End: 9.25, Text: "Sure, let me pull that up."},
		},
	}

	parsed, err := ParseSRT(strings.NewReader(RenderSRT(tr)))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(parsed) != len(tr.Segments) {
		t.Fatalf("got %d segments, want %d", len(parsed), len(tr.Segments))
	}
	for i, seg := range parsed {
		want := tr.Segments[i]
		if seg.Start != want.Start || seg.End != want.End || seg.Text != want.Text {
			t.Errorf("segment %d = %+v, want %+v", i, seg, want)
		}
	}
}

func TestParseSRTRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing timing", "1\n"},
		{"bad index", "one\n00:00:00,000 --> 00:00:01,000\nhi\n"},
		{"bad timing", "1\nnot a timing line\nhi\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSRT(strings.NewReader(tt.in)); err == nil {
				t.Errorf("expected error for %q", tt.in)
			}
		})
	}
}

func TestRenderTextIncludesSpeakers(t *testing.T) {
	tr := &types.Transcript{
		Segments: []types.Segment{
			{Start: 0, End: 1, Text: "hello", Speaker: "SPEAKER_00"},
			{Start: 1, End: 2, Text: "hi there"},
		},
	}
	got := RenderText(tr)
	want := "SPEAKER_00: hello\nhi there\n"
	if got != want {
		t.Errorf("RenderText = %q, want %q", got, want)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tr := &types.Transcript{
		CallID:   "call-1",
		Language: "en",
		Duration: 9.25,
		Segments: []types.Segment{
			{Start: 0, End: 2.5, Text: "hello", Speaker: "SPEAKER_00"},
		},
	}
	data, err := RenderJSON(tr)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	back, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if back.CallID != tr.CallID || back.Language != tr.Language ||
		back.Duration != tr.Duration || len(back.Segments) != 1 {
		t.Errorf("round trip = %+v, want %+v", back, tr)
	}
	if back.Segments[0] != tr.Segments[0] {
		t.Errorf("segment = %+v, want %+v", back.Segments[0], tr.Segments[0])
	}
}
