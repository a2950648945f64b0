package exam

// Options controls one conversion
type Options struct {
	// Dialect forces a dialect by name; empty selects one with Detect
	Dialect string

	// Campus fills the campus tag column
	Campus string

	// MultipleChoiceOnly drops questions whose type is known and is not
	// multiple choice. Questions without a type are kept.
	MultipleChoiceOnly bool
}

// Stats summarizes a conversion for logging and tool output
type Stats struct {
	Blocks     int
	Questions  int
	Incomplete int
	Filtered   int
	Matched    int
	Topics     int
}

// Result is the outcome of a conversion
type Result struct {
	Dialect   string
	Questions []Question
	Table     *Table
	Stats     Stats
}

// Convert runs the whole extraction pipeline over decoded document text and
// an optional metadata table. The only error is an unknown dialect name;
// text in no known dialect yields an empty result.
func Convert(text string, metadata *MetadataTable, opts Options) (*Result, error) {
	var (
		ex  Extractor
		err error
	)
	if opts.Dialect != "" {
		ex, err = DialectByName(opts.Dialect)
		if err != nil {
			return nil, err
		}
	} else {
		var ok bool
		if ex, ok = Detect(Normalize(text)); !ok {
			return &Result{Table: Project(nil, ProjectOptions{Campus: opts.Campus})}, nil
		}
	}

	questions := ExtractAll(text, ex)
	result := &Result{Dialect: ex.Spec().Name}
	result.Stats.Blocks = len(questions)

	questions = Reconcile(questions, metadata)

	if opts.MultipleChoiceOnly {
		kept := questions[:0]
		for _, q := range questions {
			if q.Type != "" && q.Type != TypeMultipleChoice {
				result.Stats.Filtered++
				continue
			}
			kept = append(kept, q)
		}
		questions = kept
	}

	for i := range questions {
		if questions[i].Empty() || questions[i].Answer.IsEmpty() {
			result.Stats.Incomplete++
		}
		if _, ok := metadata.Lookup(questions[i].ID); ok {
			result.Stats.Matched++
		}
	}

	result.Questions = questions
	result.Table = Project(questions, ProjectOptions{Campus: opts.Campus})
	result.Stats.Questions = len(questions)
	result.Stats.Topics = len(result.Table.DistinctTopics)

	return result, nil
}

// ExtractAll segments text for the extractor's dialect and extracts every
// block, resolving each question's category tags.
func ExtractAll(text string, ex Extractor) []Question {
	blocks := Segment(text, ex.Spec())
	questions := make([]Question, 0, len(blocks))
	for _, b := range blocks {
		q := ex.Extract(b)
		q.Taxonomy = ResolveTags(q.Category)
		questions = append(questions, q)
	}
	return questions
}
