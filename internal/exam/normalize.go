package exam

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Checkmark is the canonical correctness glyph used by ExamSoft exports
const Checkmark = "✓"

var (
	// Mojibake and look-alike glyphs that decoders produce for the checkmark
	glyphReplacer = strings.NewReplacer(
		"\u00e2\u0153\u201c", Checkmark,
		"\u00e2\u0153\u201d", Checkmark,
		"\u2714", Checkmark,
		"\u00a0", " ",
		"\ufeff", "",
	)

	pageBreakPattern     = regexp.MustCompile(`(?m)^[ \t]*(?:--- Page Break ---|Page \d+ of \d+)[ \t]*$`)
	splitQuestionPattern = regexp.MustCompile(`Question\s*#\s*:\s*(\d+)`)
	splitItemIDPattern   = regexp.MustCompile(`Item\s+ID\s*:\s*(\d+)`)

	// Lines that open a new field and must keep their own line
	fieldStartPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?:` + Checkmark + `|\*|3)?\s*[A-K]\.(?:\s|$)`),
		regexp.MustCompile(`^\*?\s*[a-kA-K]\)(?:\s|$)`),
		regexp.MustCompile(`^Question #:`),
		regexp.MustCompile(`^\d+\)\s`),
		regexp.MustCompile(`(?i)^(?:Title|Category|Categories|(?:Correct\s+)?Answer)\s*:`),
	}
)

// terminators end a choice list and are never stored as choice or stem text
var terminators = []string{
	"Rationale:",
	"Item ID:",
	"Item Description:",
	"Attachment:",
	"Item Categories:",
	"Category Name",
	"Item Creator:",
	"Psychometrics",
}

// protectedSections hold one entry per line; their line breaks survive normalization
var protectedSections = []string{
	"Category Name",
	"Item Categories:",
	"Psychometrics",
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func isTerminator(line string) bool {
	return hasAnyPrefix(line, terminators)
}

func isFieldStart(line string) bool {
	if isTerminator(line) {
		return true
	}
	for _, p := range fieldStartPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Normalize repairs the damage PDF and text exporters do to question text:
// inconsistent line endings, mis-decoded checkmarks, page-break separators,
// boundary markers split across lines and spurious mid-sentence line breaks.
// Blank lines and per-line category listings are preserved.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n\n")
	text = norm.NFC.String(text)
	text = glyphReplacer.Replace(text)
	text = pageBreakPattern.ReplaceAllString(text, "")
	text = splitQuestionPattern.ReplaceAllString(text, "Question #: $1")
	text = splitItemIDPattern.ReplaceAllString(text, "Item ID: $1")

	return collapseLineBreaks(text)
}

func collapseLineBreaks(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	protected := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			protected = false
			continue
		}

		joinable := len(out) > 0 && out[len(out)-1] != "" && !protected
		if joinable && !isFieldStart(trimmed) {
			out[len(out)-1] += " " + trimmed
		} else {
			out = append(out, trimmed)
		}

		if hasAnyPrefix(trimmed, protectedSections) {
			protected = true
		}
	}

	return strings.Join(out, "\n")
}
