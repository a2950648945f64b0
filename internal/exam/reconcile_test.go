package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_FallbackForUnidentifiedQuestions(t *testing.T) {
	table := NewMetadataTable([]Metadata{
		{ID: "100", Taxonomy: Taxonomy{Course: "NU 210"}},
	})
	questions := []Question{
		{Stem: "one", Position: 0},
		{Stem: "two", Position: 1},
		{Stem: "three", Position: 2},
	}

	out := Reconcile(questions, table)
	require.Len(t, out, 3)

	for _, q := range out {
		assert.Equal(t, "NU 210", q.Course)
		assert.Equal(t, LevelUndergraduate, q.Level)
		assert.Empty(t, q.ID)
	}
	assert.Empty(t, questions[0].Course, "input slice is not modified")
}

func TestReconcile_MetadataWins(t *testing.T) {
	table := NewMetadataTable([]Metadata{
		{
			ID:       "42",
			Type:     "Essay",
			Feedback: "from metadata",
			Taxonomy: Taxonomy{
				Course: "NU 550",
				Bloom:  "03 Applying",
				Topics: []string{"Renal"},
			},
		},
	})
	questions := []Question{{
		ID:        "42 / 1",
		Stem:      "stem",
		Rationale: "from document",
		Taxonomy: Taxonomy{
			Course: "NU 210",
			Level:  LevelUndergraduate,
			Bloom:  "01 Remembering",
			Domain: "Management of Care",
			Topics: []string{"Cardiac"},
		},
	}}

	out := Reconcile(questions, table)
	q := out[0]

	assert.Equal(t, "42", q.ID)
	assert.Equal(t, "NU 550", q.Course)
	assert.Equal(t, LevelGraduate, q.Level)
	assert.Equal(t, "03 Applying", q.Bloom)
	assert.Equal(t, "Management of Care", q.Domain)
	assert.Equal(t, []string{"Renal"}, q.Topics)
	assert.Equal(t, "Essay", q.Type)
	assert.Equal(t, "from document", q.Rationale)
}

func TestReconcile_FeedbackFillsMissingRationale(t *testing.T) {
	table := NewMetadataTable([]Metadata{{ID: "7", Feedback: "explained"}})

	out := Reconcile([]Question{{ID: "7", Stem: "s"}}, table)

	assert.Equal(t, "explained", out[0].Rationale)
}

func TestReconcile_TitleMapsToID(t *testing.T) {
	table := NewMetadataTable([]Metadata{
		{ID: "900", Title: "Cardiac Meds", Taxonomy: Taxonomy{Course: "NU 310"}},
		{ID: "901", Title: "Renal"},
	})
	questions := []Question{
		{Title: "Cardiac Meds", Stem: "a"},
		{Title: "Unknown", Stem: "b"},
		{Title: "Renal", Stem: "c"},
	}

	out := Reconcile(questions, table)

	assert.Equal(t, "900", out[0].ID)
	assert.Empty(t, out[1].ID)
	assert.Equal(t, "901", out[2].ID)
	assert.Equal(t, "NU 310", out[1].Course, "fallback applies to unmatched questions")
}

func TestReconcile_PositionalWhenAligned(t *testing.T) {
	table := NewMetadataTable([]Metadata{
		{ID: "11", Taxonomy: Taxonomy{Bloom: "02 Understanding"}},
		{ID: "12", Taxonomy: Taxonomy{Bloom: "05 Evaluating"}},
	})
	questions := []Question{
		{Stem: "a", Position: 0},
		{Stem: "b", Position: 1},
	}

	out := Reconcile(questions, table)

	assert.Equal(t, "11", out[0].ID)
	assert.Equal(t, "02 Understanding", out[0].Bloom)
	assert.Equal(t, "12", out[1].ID)
	assert.Equal(t, "05 Evaluating", out[1].Bloom)
}

func TestReconcile_NoPositionalWhenCountsDiffer(t *testing.T) {
	table := NewMetadataTable([]Metadata{
		{ID: "11", Taxonomy: Taxonomy{Bloom: "02 Understanding"}},
	})

	out := Reconcile([]Question{{Stem: "a"}, {Stem: "b", Position: 1}}, table)

	assert.Empty(t, out[0].ID)
	assert.Empty(t, out[0].Bloom)
}

func TestReconcile_NilTable(t *testing.T) {
	questions := []Question{{ID: "5/1", Stem: "s"}}

	out := Reconcile(questions, nil)

	assert.Equal(t, "5", out[0].ID)
	assert.Empty(t, out[0].Course)
}

func TestBatchFallback(t *testing.T) {
	table := NewMetadataTable([]Metadata{
		{ID: "1"},
		{ID: "2", Taxonomy: Taxonomy{Course: "NU 450"}},
		{ID: "3", Taxonomy: Taxonomy{Course: "NU 650"}},
		{ID: "4", Taxonomy: Taxonomy{Course: "NU 110"}},
	})

	fb, ok := BatchFallback(table)
	require.True(t, ok)
	assert.Equal(t, Fallback{Course: "NU 650", Level: LevelGraduate}, fb)

	_, ok = BatchFallback(NewMetadataTable([]Metadata{{ID: "1"}}))
	assert.False(t, ok)
}

func TestDisplayID(t *testing.T) {
	tests := []struct {
		level string
		id    string
		want  string
	}{
		{LevelUndergraduate, "100", "U100"},
		{LevelGraduate, "100", "G100"},
		{"", "100", "100"},
		{LevelGraduate, "", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayID(tt.level, tt.id))
	}
}
