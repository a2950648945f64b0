package exam

import (
	"regexp"
	"strings"
)

var (
	itemIDPattern     = regexp.MustCompile(`Item ID:\s*(\d+)`)
	answerLinePattern = regexp.MustCompile(`(?i)^(?:correct\s+)?answer\s*:\s*(.*)$`)
	answerLetters     = regexp.MustCompile(`^([A-Ka-k](?:\s*[,;]\s*[A-Ka-k])*)\.?$`)
	rationaleLabel    = regexp.MustCompile(`(?i)^rationale\s*:\s*`)
	categoryLabel     = regexp.MustCompile(`(?i)^(?:item\s+)?categories\s*:\s*`)
	columnGap         = regexp.MustCompile(`\t+| {2,}`)
	headingPattern    = regexp.MustCompile(`(?is)^Title:\s*(.*?)(?:\s+Category:\s*(.*))?$`)

	// bleedPattern matches footer labels captured as choice text
	bleedPattern = regexp.MustCompile(`^(?:Category|Item|Attachment|Rationale)\b(?:\s+\w+)?\s*:`)
)

// Sub-sections that sit between the stem and the choices in some exports
var adminSections = []string{
	"Psychometrics",
	"Item Description:",
}

// grammar is a line-oriented extraction rule set for one dialect
type grammar struct {
	spec DialectSpec

	// choice matches a choice line: 1 correctness marker, 2 letter, 3 text
	choice *regexp.Regexp

	// marked reports whether a captured marker flags the choice as correct
	marked func(marker string) bool

	// rationaleSep splits an inline rationale off the stem when non-empty
	rationaleSep string
}

func (g *grammar) Spec() DialectSpec {
	return g.spec
}

// Extract recovers as many fields of the question as it can. Fields that do
// not match stay empty.
func (g *grammar) Extract(b Block) Question {
	q := Question{Position: b.Index}

	text := b.Text
	if m := itemIDPattern.FindStringSubmatch(text); m != nil {
		q.ID = m[1]
	}
	if loc := g.spec.Boundary.FindStringIndex(text); loc != nil && strings.TrimSpace(text[:loc[0]]) == "" {
		text = text[loc[1]:]
	}

	lines := splitLines(text)
	first := g.firstChoice(lines)

	if first >= 0 {
		stem := collapseSpace(strings.Join(g.stemLines(lines[:first]), " "))
		if g.rationaleSep != "" {
			if i := strings.Index(stem, g.rationaleSep); i >= 0 {
				q.Rationale = collapseSpace(stem[i+len(g.rationaleSep):])
				stem = strings.TrimSpace(stem[:i])
			}
		}
		q.Stem = stem
		g.extractChoices(lines[first:], &q)
	}

	if q.Rationale == "" {
		q.Rationale = extractRationale(lines)
	}
	if q.Answer.IsEmpty() {
		extractAnswerLine(lines, &q.Answer)
	}

	q.Category = extractCategories(lines)
	if b.Heading != "" {
		title, category := parseHeading(b.Heading)
		q.Title = title
		if q.Category == "" {
			q.Category = category
		}
	}

	return q
}

func (g *grammar) firstChoice(lines []string) int {
	for i, line := range lines {
		if isTerminator(line) && !hasAnyPrefix(line, adminSections) {
			return -1
		}
		if g.choice.MatchString(line) {
			return i
		}
	}
	return -1
}

// stemLines drops administrative sub-sections from the lines before the
// first choice. A section runs until the first choice line.
func (g *grammar) stemLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if hasAnyPrefix(line, adminSections) || isTerminator(line) {
			break
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (g *grammar) extractChoices(lines []string, q *Question) {
	var (
		letter string
		parts  []string
		marked bool
	)

	flush := func() {
		if letter == "" {
			return
		}
		text := collapseSpace(strings.Join(parts, " "))
		if !isBleed(text) {
			q.Choices = q.Choices.Set(letter, text)
			if marked {
				q.Answer.AddLetter(letter)
			}
		}
		letter, parts, marked = "", nil, false
	}

	for _, line := range lines {
		if endsChoices(line) {
			break
		}
		if m := g.choice.FindStringSubmatch(line); m != nil {
			flush()
			letter = strings.ToUpper(m[2])
			parts = []string{m[3]}
			marked = g.marked(m[1])
			continue
		}
		if line == "" {
			flush()
			continue
		}
		if letter != "" {
			parts = append(parts, line)
		}
	}
	flush()
}

// endsChoices reports whether line closes the choice list
func endsChoices(line string) bool {
	return isTerminator(line) ||
		answerLinePattern.MatchString(line) ||
		categoryLabel.MatchString(line) ||
		strings.HasPrefix(line, "Title:")
}

func isBleed(text string) bool {
	return bleedPattern.MatchString(text) || isTerminator(text)
}

// extractRationale captures text from the Rationale label up to the next
// blank line or terminator.
func extractRationale(lines []string) string {
	for i, line := range lines {
		loc := rationaleLabel.FindStringIndex(line)
		if loc == nil {
			continue
		}
		parts := []string{line[loc[1]:]}
		for _, next := range lines[i+1:] {
			if next == "" || isTerminator(next) || strings.HasPrefix(next, "Question #:") {
				break
			}
			parts = append(parts, next)
		}
		return collapseSpace(strings.Join(parts, " "))
	}
	return ""
}

// extractAnswerLine handles dialects that restate the correct answer on an
// "Answer:" line instead of marking a choice.
func extractAnswerLine(lines []string, answer *Answer) {
	for _, line := range lines {
		m := answerLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if lm := answerLetters.FindStringSubmatch(value); lm != nil {
			for _, l := range strings.FieldsFunc(lm[1], func(r rune) bool {
				return r == ',' || r == ';' || r == ' '
			}) {
				answer.AddLetter(l)
			}
			return
		}
		answer.SetText(value)
		return
	}
}

// extractCategories collects the category blob from either a
// "Category Name / Category Path" listing or an inline "Categories:" label.
func extractCategories(lines []string) string {
	var tags []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "Category Name"):
			for i+1 < len(lines) && lines[i+1] != "" && !isTerminator(lines[i+1]) {
				i++
				cols := columnGap.Split(lines[i], -1)
				tags = append(tags, strings.TrimSpace(cols[len(cols)-1]))
			}
		case categoryLabel.MatchString(line):
			tags = append(tags, categoryLabel.ReplaceAllString(line, ""))
			for i+1 < len(lines) && lines[i+1] != "" && !isFieldStart(lines[i+1]) {
				i++
				tags = append(tags, lines[i])
			}
		}
	}
	return strings.Join(tags, "; ")
}

// parseHeading splits a "Title: ... Category: ..." section heading
func parseHeading(heading string) (string, string) {
	m := headingPattern.FindStringSubmatch(collapseSpace(heading))
	if m == nil {
		return "", ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}
