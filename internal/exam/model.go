package exam

import (
	"strings"
)

// Letters lists the supported choice labels in positional order (A=0 ... K=10).
const Letters = "ABCDEFGHIJK"

// MaxChoices is the number of choice slots a question can carry
const MaxChoices = len(Letters)

// LetterIndex returns the zero-based slot for a choice letter, or -1 when the
// letter is outside A-K. Lowercase letters are accepted.
func LetterIndex(letter string) int {
	if len(letter) != 1 {
		return -1
	}
	return strings.IndexByte(Letters, strings.ToUpper(letter)[0])
}

// LetterAt returns the choice letter for a slot index
func LetterAt(index int) string {
	if index < 0 || index >= MaxChoices {
		return ""
	}
	return Letters[index : index+1]
}

// Choices holds answer options by slot. Missing letters stay as empty slots so
// that B is always at index 1 even when A could not be recovered.
type Choices []string

// Set stores text at the slot for letter, growing the slice as needed.
// A letter outside A-K is ignored.
func (c Choices) Set(letter, text string) Choices {
	idx := LetterIndex(letter)
	if idx < 0 {
		return c
	}
	for len(c) <= idx {
		c = append(c, "")
	}
	c[idx] = text
	return c
}

// Get returns the text stored for letter
func (c Choices) Get(letter string) string {
	idx := LetterIndex(letter)
	if idx < 0 || idx >= len(c) {
		return ""
	}
	return c[idx]
}

// Width returns the number of slots up to and including the last populated one
func (c Choices) Width() int {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] != "" {
			return i + 1
		}
	}
	return 0
}

// Populated returns the number of non-empty slots
func (c Choices) Populated() int {
	n := 0
	for _, text := range c {
		if text != "" {
			n++
		}
	}
	return n
}

// AnswerKind tells how the correct answer was recorded by the source dialect.
type AnswerKind string

const (
	// AnswerNone means no correct answer could be recovered
	AnswerNone AnswerKind = ""
	// AnswerLetters means Letters holds one or more choice letters
	AnswerLetters AnswerKind = "letters"
	// AnswerText means Text holds the literal text of the correct choice
	AnswerText AnswerKind = "text"
)

// AnswerSeparator joins letters of a multi-select answer
const AnswerSeparator = ";"

// Answer is the correct-answer marker of a question. Exactly one of Letters or
// Text is meaningful, as selected by Kind.
type Answer struct {
	Kind    AnswerKind
	Letters []string
	Text    string
}

// AddLetter records a marked letter, ignoring duplicates. It switches the
// answer to letter form, discarding any literal text.
func (a *Answer) AddLetter(letter string) {
	letter = strings.ToUpper(letter)
	if LetterIndex(letter) < 0 {
		return
	}
	if a.Kind != AnswerLetters {
		a.Kind = AnswerLetters
		a.Text = ""
	}
	for _, l := range a.Letters {
		if l == letter {
			return
		}
	}
	a.Letters = append(a.Letters, letter)
}

// SetText records a literal answer unless letters were already marked
func (a *Answer) SetText(text string) {
	text = strings.TrimSpace(text)
	if text == "" || a.Kind == AnswerLetters {
		return
	}
	a.Kind = AnswerText
	a.Text = text
}

// IsEmpty reports whether no answer was recovered
func (a Answer) IsEmpty() bool {
	return a.Kind == AnswerNone
}

// MultiSelect reports whether more than one letter is marked correct
func (a Answer) MultiSelect() bool {
	return a.Kind == AnswerLetters && len(a.Letters) > 1
}

// String renders the answer for the Correct Answer column
func (a Answer) String() string {
	switch a.Kind {
	case AnswerLetters:
		return strings.Join(a.Letters, AnswerSeparator)
	case AnswerText:
		return a.Text
	default:
		return ""
	}
}

// Taxonomy holds the normalized classification tags of a question
type Taxonomy struct {
	Course string
	Level  string
	Bloom  string
	Domain string
	Topics []string
}

// Question is one extracted exam item
type Question struct {
	ID        string
	Title     string
	Stem      string
	Choices   Choices
	Answer    Answer
	Rationale string
	Type      string
	Category  string
	Position  int

	Taxonomy
}

// Empty reports whether extraction recovered nothing usable for the stem.
// Callers treat it as a soft failure signal.
func (q *Question) Empty() bool {
	return q.Stem == ""
}

// Metadata is one row of the side metadata table, keyed by item ID
type Metadata struct {
	ID       string
	Title    string
	Type     string
	Feedback string

	Taxonomy
}

// normalizeID reduces "1234/2" style ID/Rev values to the item ID
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.Index(id, "/"); i >= 0 {
		id = strings.TrimSpace(id[:i])
	}
	return id
}

// collapseSpace joins all whitespace runs into single spaces and trims
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
