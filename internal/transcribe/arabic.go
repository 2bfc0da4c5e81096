package transcribe

import (
	"regexp"
	"strings"

	"github.com/callsight/callsight/internal/types"
)

var (
	tashkeel   = regexp.MustCompile(`[\x{064B}-\x{065F}\x{0670}]`)
	alefHamza  = regexp.MustCompile(`[إأآا]`)
	hamzaForms = regexp.MustCompile(`[ؤئ]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// NormalizeArabic cleans up Whisper's Arabic output in place: diacritics
// stripped, hamza forms folded, whitespace collapsed. Timestamps are left
// untouched.
func NormalizeArabic(tr *types.Transcript) {
	for i := range tr.Segments {
		tr.Segments[i].Text = normalizeArabicText(tr.Segments[i].Text)
	}
}

func normalizeArabicText(text string) string {
	if text == "" {
		return text
	}
	text = tashkeel.ReplaceAllString(text, "")
	text = alefHamza.ReplaceAllString(text, "ا")
	text = hamzaForms.ReplaceAllString(text, "ء")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
