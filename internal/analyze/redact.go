package analyze

import (
	"regexp"

	"github.com/callsight/callsight/internal/types"
)

// Redactor masks personally identifiable spans in transcript text.
// Detection is pattern based; segment boundaries and timestamps are never
// touched, only the text inside each segment.
type Redactor struct {
	placeholder string
	patterns    []*regexp.Regexp
}

// Patterns ordered longest-match-first so card numbers are not half-eaten
// by the shorter digit-run rule.
var piiPatterns = []*regexp.Regexp{
	// email addresses
	regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	// payment card numbers, with or without separators
	regexp.MustCompile(`\b(?:\d[ \-]?){13,18}\d\b`),
	// international and local phone numbers
	regexp.MustCompile(`\+?\d{1,3}[ \-.]?\(?\d{1,4}\)?(?:[ \-.]?\d{2,4}){2,4}`),
	// bare long digit runs (account / national ID style)
	regexp.MustCompile(`\b\d{9,}\b`),
}

// NewRedactor creates a redactor using the given placeholder text.
func NewRedactor(placeholder string) *Redactor {
	if placeholder == "" {
		placeholder = "[REDACTED]"
	}
	return &Redactor{placeholder: placeholder, patterns: piiPatterns}
}

// RedactText masks all detected PII spans in a string and reports how
// many replacements were made.
func (r *Redactor) RedactText(text string) (string, int) {
	count := 0
	for _, re := range r.patterns {
		text = re.ReplaceAllStringFunc(text, func(string) string {
			count++
			return r.placeholder
		})
	}
	return text, count
}

// RedactTranscript returns a redacted copy of the transcript. The
// original is left untouched; starts, ends and speakers carry over
// unchanged.
func (r *Redactor) RedactTranscript(tr *types.Transcript) (*types.Transcript, int) {
	out := &types.Transcript{
		CallID:   tr.CallID,
		Language: tr.Language,
		Duration: tr.Duration,
		Segments: make([]types.Segment, len(tr.Segments)),
	}
	total := 0
	for i, seg := range tr.Segments {
		text, n := r.RedactText(seg.Text)
		total += n
		out.Segments[i] = types.Segment{
			Start:   seg.Start,
			End:     seg.End,
			Text:    text,
			Speaker: seg.Speaker,
		}
	}
	return out, total
}
