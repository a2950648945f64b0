package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFromRows(t *testing.T) {
	header := []string{"\ufeffID/Rev", "Title", "Categories", "Type", "Rationale"}
	rows := [][]string{
		{"100/2", "Potassium", "NU 210, 02 - Understanding, Topical/Renal", "mchoice", "Peaked T waves."},
		{"", "orphan", "NU 310", "mchoice", ""},
		{"101", "Essay", "NU 550", "essay"},
		{"100/3", "duplicate", "NU 899", "mchoice", ""},
	}

	table := MetadataFromRows(header, rows)
	require.Equal(t, 2, table.Len())

	md, ok := table.Lookup("100")
	require.True(t, ok)
	assert.Equal(t, "100", md.ID)
	assert.Equal(t, "Potassium", md.Title)
	assert.Equal(t, TypeMultipleChoice, md.Type)
	assert.Equal(t, "Peaked T waves.", md.Feedback)
	assert.Equal(t, "NU 210", md.Course)
	assert.Equal(t, LevelUndergraduate, md.Level)
	assert.Equal(t, "02 Understanding", md.Bloom)
	assert.Equal(t, []string{"Renal"}, md.Topics)

	md, ok = table.Lookup("101 / 1")
	require.True(t, ok)
	assert.Equal(t, "essay", md.Type)
	assert.Empty(t, md.Feedback)

	id, ok := table.IDForTitle(" Potassium ")
	require.True(t, ok)
	assert.Equal(t, "100", id)

	_, ok = table.IDForTitle("duplicate")
	assert.False(t, ok)
}

func TestMetadataFromRows_NoIDColumn(t *testing.T) {
	table := MetadataFromRows([]string{"Title", "Categories"}, [][]string{{"a", "NU 210"}})
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Rows())
}

func TestMetadataTable_NilSafe(t *testing.T) {
	var table *MetadataTable

	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Rows())

	_, ok := table.Lookup("1")
	assert.False(t, ok)
	_, ok = table.IDForTitle("x")
	assert.False(t, ok)
	_, ok = table.At(0)
	assert.False(t, ok)
}

func TestNormalizeType(t *testing.T) {
	tests := map[string]string{
		"mchoice":          TypeMultipleChoice,
		"MC":               TypeMultipleChoice,
		" Multiple Choice": TypeMultipleChoice,
		"essay":            "essay",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeType(in), in)
	}
}
