package exam

// Fallback is the batch-wide course and level applied to questions that carry
// neither. It comes from the first metadata row that has both.
type Fallback struct {
	Course string
	Level  string
}

// BatchFallback returns the first row, in table order, with a course and a
// level (derived from the course when the row lacks one). The second result
// is false when no row qualifies.
func BatchFallback(table *MetadataTable) (Fallback, bool) {
	for _, row := range table.Rows() {
		level := row.Level
		if level == "" {
			level = DeriveLevel(row.Course)
		}
		if row.Course != "" && level != "" {
			return Fallback{Course: row.Course, Level: level}, true
		}
	}
	return Fallback{}, false
}

// Reconcile merges metadata into questions and returns the enriched slice.
//
// Questions are matched by ID, then by title through the table's title
// index, then by position when the table is row-aligned with the batch.
// Non-empty metadata taxonomy values win over values resolved from the
// question's own category text. Finally every question still lacking a course
// receives the batch fallback.
func Reconcile(questions []Question, table *MetadataTable) []Question {
	out := make([]Question, len(questions))
	copy(out, questions)

	aligned := table.Len() > 0 && table.Len() == len(questions)

	for i := range out {
		q := &out[i]
		q.ID = normalizeID(q.ID)

		if q.ID == "" && q.Title != "" {
			if id, ok := table.IDForTitle(q.Title); ok {
				q.ID = id
			}
		}

		md, ok := table.Lookup(q.ID)
		if !ok && q.ID == "" && aligned {
			md, ok = table.At(q.Position)
			if ok {
				q.ID = md.ID
			}
		}
		if ok {
			applyMetadata(q, md)
		}
	}

	if fb, ok := BatchFallback(table); ok {
		for i := range out {
			if out[i].Course == "" {
				out[i].Course = fb.Course
				out[i].Level = fb.Level
			}
		}
	}

	return out
}

func applyMetadata(q *Question, md Metadata) {
	if md.Course != "" {
		q.Course = md.Course
		q.Level = md.Level
		if q.Level == "" {
			q.Level = DeriveLevel(md.Course)
		}
	}
	if md.Bloom != "" {
		q.Bloom = md.Bloom
	}
	if md.Domain != "" {
		q.Domain = md.Domain
	}
	if len(md.Topics) > 0 {
		q.Topics = append([]string(nil), md.Topics...)
	}
	if md.Type != "" {
		q.Type = md.Type
	}
	if q.Rationale == "" {
		q.Rationale = md.Feedback
	}
}

// DisplayID prefixes an item ID with "U" for undergraduate or "G" for
// graduate items. An empty ID stays empty.
func DisplayID(level, id string) string {
	if id == "" {
		return ""
	}
	switch level {
	case LevelUndergraduate:
		return "U" + id
	case LevelGraduate:
		return "G" + id
	default:
		return id
	}
}
