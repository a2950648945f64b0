package exam

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Dialect names accepted by DialectByName
const (
	DialectExamSoft = "examsoft"
	DialectNumbered = "numbered"
	DialectItemID   = "itemid"
)

// ErrUnknownDialect is returned when a dialect name is not registered
var ErrUnknownDialect = errors.New("unknown dialect")

// Extractor turns one block of a known dialect into a question
type Extractor interface {
	Spec() DialectSpec
	Extract(b Block) Question
}

// ExamSoftDialect reads ExamSoft PDF dumps: "Question #: N" headings, "A."
// choices with a checkmark (or its "3"/"*" renderings) on the correct one and
// an "Item ID: N / R" footer.
func ExamSoftDialect() Extractor {
	return &grammar{
		spec: DialectSpec{
			Name:     DialectExamSoft,
			Boundary: regexp.MustCompile(`Question #:\s*\d+`),
		},
		choice: regexp.MustCompile(`^(` + Checkmark + `|\*|3)?\s*([A-K])\.(?:\s+(.*)|$)`),
		marked: func(marker string) bool { return marker != "" },
	}
}

// PlainNumberedDialect reads plain-text exports: "N) stem ~ rationale" lines,
// "a)" choices with "*" on correct ones, and "Title: ... Category: ..."
// section headings that apply to the questions below them.
func PlainNumberedDialect() Extractor {
	return &grammar{
		spec: DialectSpec{
			Name:     DialectNumbered,
			Boundary: regexp.MustCompile(`(?m)^\d+\)\s`),
			Heading:  regexp.MustCompile(`(?m)^Title:`),
		},
		choice:       regexp.MustCompile(`^(\*)?\s*([a-kA-K])\)(?:\s+(.*)|$)`),
		marked:       func(marker string) bool { return marker == "*" },
		rationaleSep: "~",
	}
}

// ItemIDDialect reads item-bank exports where each item opens with an
// "Item ID: N" heading, choices are "A." lines marked with "*" or a checkmark,
// and the key may be restated on an "Answer:" line.
func ItemIDDialect() Extractor {
	return &grammar{
		spec: DialectSpec{
			Name:     DialectItemID,
			Boundary: regexp.MustCompile(`(?m)^Item ID:\s*\d+(?:\s*/\s*\d+)?`),
		},
		choice: regexp.MustCompile(`^(` + Checkmark + `|\*)?\s*([A-K])\.(?:\s+(.*)|$)`),
		marked: func(marker string) bool { return marker != "" },
	}
}

var dialects = map[string]func() Extractor{
	DialectExamSoft: ExamSoftDialect,
	DialectNumbered: PlainNumberedDialect,
	DialectItemID:   ItemIDDialect,
}

// DialectNames returns the registered dialect names in sorted order
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DialectByName returns the extractor registered under name
func DialectByName(name string) (Extractor, error) {
	ctor, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownDialect, name, strings.Join(DialectNames(), ", "))
	}
	return ctor(), nil
}

var (
	examSoftToken   = regexp.MustCompile(`Question\s*#\s*:`)
	numberedToken   = regexp.MustCompile(`(?m)^\s*\d+\)\s`)
	numberedChoices = regexp.MustCompile(`(?m)^\s*\*?\s*[a-k]\)\s`)
	itemIDToken     = regexp.MustCompile(`(?m)^\s*Item\s+ID\s*:\s*\d+`)
)

// Detect picks the dialect whose characteristic boundary tokens appear in
// text. The second result is false when no dialect matches.
func Detect(text string) (Extractor, bool) {
	switch {
	case examSoftToken.MatchString(text):
		return ExamSoftDialect(), true
	case numberedToken.MatchString(text) && numberedChoices.MatchString(text):
		return PlainNumberedDialect(), true
	case itemIDToken.MatchString(text):
		return ItemIDDialect(), true
	default:
		return nil, false
	}
}
