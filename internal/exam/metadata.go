package exam

import (
	"strings"
)

// TypeMultipleChoice is the output label for multiple-choice items
const TypeMultipleChoice = "Multiple Choice"

// Header aliases recognized in metadata sheets, compared case-insensitively
var (
	idHeaders       = []string{"id/rev", "item id", "id"}
	titleHeaders    = []string{"title"}
	categoryHeaders = []string{"categories", "category", "item categories"}
	typeHeaders     = []string{"type", "question type", "item type"}
	feedbackHeaders = []string{"rationale", "feedback", "correct feedback"}
)

// MetadataTable is the side metadata source. Rows keep their sheet order,
// which the reconciler relies on for fallbacks and positional matching.
type MetadataTable struct {
	rows    []Metadata
	byID    map[string]int
	byTitle map[string]string
}

// NewMetadataTable indexes rows by ID and title. Rows without an ID are
// skipped; a repeated ID keeps the first row.
func NewMetadataTable(rows []Metadata) *MetadataTable {
	t := &MetadataTable{
		byID:    make(map[string]int),
		byTitle: make(map[string]string),
	}
	for _, row := range rows {
		row.ID = normalizeID(row.ID)
		if row.ID == "" {
			continue
		}
		if _, dup := t.byID[row.ID]; dup {
			continue
		}
		t.byID[row.ID] = len(t.rows)
		t.rows = append(t.rows, row)
		if title := strings.TrimSpace(row.Title); title != "" {
			if _, ok := t.byTitle[title]; !ok {
				t.byTitle[title] = row.ID
			}
		}
	}
	return t
}

// Len returns the number of indexed rows
func (t *MetadataTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns the rows in sheet order
func (t *MetadataTable) Rows() []Metadata {
	if t == nil {
		return nil
	}
	return t.rows
}

// Lookup returns the row for an item ID
func (t *MetadataTable) Lookup(id string) (Metadata, bool) {
	if t == nil {
		return Metadata{}, false
	}
	i, ok := t.byID[normalizeID(id)]
	if !ok {
		return Metadata{}, false
	}
	return t.rows[i], true
}

// IDForTitle maps a question title to its item ID
func (t *MetadataTable) IDForTitle(title string) (string, bool) {
	if t == nil {
		return "", false
	}
	id, ok := t.byTitle[strings.TrimSpace(title)]
	return id, ok
}

// At returns the row at a sheet position
func (t *MetadataTable) At(i int) (Metadata, bool) {
	if t == nil || i < 0 || i >= len(t.rows) {
		return Metadata{}, false
	}
	return t.rows[i], true
}

// MetadataFromRows builds a table from a decoded sheet: header names in
// header, one slice per data row. Categories are resolved with ResolveTags.
// Rows without an ID are skipped; short rows read missing cells as empty.
func MetadataFromRows(header []string, rows [][]string) *MetadataTable {
	col := headerIndex(header)
	idCol := col(idHeaders)
	if idCol < 0 {
		return NewMetadataTable(nil)
	}
	titleCol := col(titleHeaders)
	categoryCol := col(categoryHeaders)
	typeCol := col(typeHeaders)
	feedbackCol := col(feedbackHeaders)

	records := make([]Metadata, 0, len(rows))
	for _, row := range rows {
		id := cell(row, idCol)
		if id == "" {
			continue
		}
		records = append(records, Metadata{
			ID:       id,
			Title:    cell(row, titleCol),
			Type:     NormalizeType(cell(row, typeCol)),
			Feedback: cell(row, feedbackCol),
			Taxonomy: ResolveTags(cell(row, categoryCol)),
		})
	}
	return NewMetadataTable(records)
}

// NormalizeType maps export type codes to output labels
func NormalizeType(t string) string {
	t = strings.TrimSpace(t)
	switch strings.ToLower(t) {
	case "mchoice", "mc", "multiple choice", "multiplechoice":
		return TypeMultipleChoice
	default:
		return t
	}
}

func headerIndex(header []string) func(aliases []string) int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return func(aliases []string) int {
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				return i
			}
		}
		return -1
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
