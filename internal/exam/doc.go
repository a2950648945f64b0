// Package exam extracts multiple-choice questions from exported exam text and
// projects them into rows for an assessment-authoring import.
//
// The pipeline runs in five steps: Segment splits text into blocks for a
// dialect, an Extractor turns each block into a Question, ResolveTags
// normalizes category tags, Reconcile merges a side metadata table, and
// Project flattens the batch into a Table with repeated column groups.
package exam
