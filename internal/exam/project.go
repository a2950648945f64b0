package exam

import (
	"fmt"
	"strconv"
)

// Output column headers
const (
	ColQuestionID    = "Question ID"
	ColTitle         = "Title"
	ColQuestionText  = "Question Text"
	ColCorrectAnswer = "Correct Answer"
	ColQuestionType  = "Question Type"
	ColTemplate      = "Template"
	ColBloom         = "Tag: Bloom's"
	ColLevel         = "Tag: Level"
	ColNCLEX         = "Tag: NCLEX"
	ColCourse        = "Tag: Course #"
	ColCampus        = "Tag: Campus"
	ColFeedback      = "Correct Feedback"

	// ColTopic is shared by every column of the topic group
	ColTopic = "Tag: Topic"
	// ColOptionPrefix is followed by the choice letter
	ColOptionPrefix = "Option "
)

// Template values for the authoring platform
const (
	TemplateStandard         = "standard"
	TemplateMultipleResponse = "multiple response"
)

// scalarColumns is the fixed leading column order
var scalarColumns = []string{
	ColQuestionID,
	ColTitle,
	ColQuestionText,
	ColCorrectAnswer,
	ColQuestionType,
	ColTemplate,
	ColBloom,
	ColLevel,
	ColNCLEX,
	ColCourse,
	ColCampus,
	ColFeedback,
}

// ColumnGroup is a run of columns produced from one multi-valued field
type ColumnGroup struct {
	Name  string
	Width int

	// Repeated groups emit the same header for every column
	Repeated bool
}

// Column is one output column. Key is unique within a table; Header is what
// gets written and may repeat inside a repeated group.
type Column struct {
	Key    string
	Header string
	Group  string
}

// Row maps every column key to its cell value
type Row map[string]string

// Table is a projected batch ready for serialization
type Table struct {
	Columns []Column
	Groups  []ColumnGroup
	Rows    []Row

	// DistinctTopics lists every topic seen in the batch, first-seen order
	DistinctTopics []string
}

// ProjectOptions carries values that come from the request rather than
// from the questions
type ProjectOptions struct {
	Campus string
}

// Project flattens questions into a table. The option and topic groups are
// as wide as the widest question in the batch; shorter rows are blank filled.
func Project(questions []Question, opts ProjectOptions) *Table {
	choiceWidth, topicWidth := 0, 0
	var distinct []string
	seen := make(map[string]bool)

	for i := range questions {
		q := &questions[i]
		choiceWidth = max(choiceWidth, q.Choices.Width())
		topicWidth = max(topicWidth, len(q.Topics))
		for _, topic := range q.Topics {
			if !seen[topic] {
				seen[topic] = true
				distinct = append(distinct, topic)
			}
		}
	}

	t := &Table{
		Groups: []ColumnGroup{
			{Name: "options", Width: choiceWidth},
			{Name: "topics", Width: topicWidth, Repeated: true},
		},
		DistinctTopics: distinct,
	}

	for _, name := range scalarColumns {
		t.Columns = append(t.Columns, Column{Key: name, Header: name})
	}
	for i := 0; i < choiceWidth; i++ {
		header := ColOptionPrefix + LetterAt(i)
		t.Columns = append(t.Columns, Column{Key: header, Header: header, Group: "options"})
	}
	for i := 0; i < topicWidth; i++ {
		t.Columns = append(t.Columns, Column{Key: topicKey(i), Header: ColTopic, Group: "topics"})
	}

	t.Rows = make([]Row, 0, len(questions))
	for i := range questions {
		t.Rows = append(t.Rows, projectRow(&questions[i], opts, choiceWidth, topicWidth))
	}

	return t
}

func projectRow(q *Question, opts ProjectOptions, choiceWidth, topicWidth int) Row {
	template := TemplateStandard
	if q.Answer.MultiSelect() {
		template = TemplateMultipleResponse
	}
	qtype := q.Type
	if qtype == "" {
		qtype = TypeMultipleChoice
	}

	row := Row{
		ColQuestionID:    DisplayID(q.Level, q.ID),
		ColTitle:         q.ID,
		ColQuestionText:  q.Stem,
		ColCorrectAnswer: q.Answer.String(),
		ColQuestionType:  qtype,
		ColTemplate:      template,
		ColBloom:         q.Bloom,
		ColLevel:         q.Level,
		ColNCLEX:         q.Domain,
		ColCourse:        q.Course,
		ColCampus:        opts.Campus,
		ColFeedback:      q.Rationale,
	}
	for i := 0; i < choiceWidth; i++ {
		letter := LetterAt(i)
		row[ColOptionPrefix+letter] = q.Choices.Get(letter)
	}
	for i := 0; i < topicWidth; i++ {
		value := ""
		if i < len(q.Topics) {
			value = q.Topics[i]
		}
		row[topicKey(i)] = value
	}
	return row
}

func topicKey(i int) string {
	return ColTopic + "_" + strconv.Itoa(i+1)
}

// Headers returns the header line, with repeated group headers as written
func (t *Table) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}
	return headers
}

// Records returns every row as cell values in column order
func (t *Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			record[j] = row[c.Key]
		}
		records[i] = record
	}
	return records
}

// Validate reports the first row that lacks a column key or carries a key
// outside the column set.
func (t *Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
		for _, c := range t.Columns {
			if _, ok := row[c.Key]; !ok {
				return fmt.Errorf("row %d is missing column %q", i, c.Key)
			}
		}
	}
	return nil
}
