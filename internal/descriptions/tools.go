package descriptions

import "sort"

// Tool names exposed over MCP
const (
	ToolConvertFile      = "exam_convert_file"
	ToolDetectDialect    = "exam_detect_dialect"
	ToolPreviewQuestions = "exam_preview_questions"
	ToolServerInfo       = "exam_server_info"
)

const (
	ConvertFileDescription = `Convert an exam export (PDF or text) into an assessment import CSV.

**When to use:** You have an ExamSoft PDF dump, a numbered plain-text export or an item-bank export and need a CSV the authoring platform can import.

**What it does:** Splits the document into question blocks, recovers stem, choices A-K, correct answer and rationale, resolves course, level, Bloom's, NCLEX and topic tags, merges an optional metadata sheet (CSV or XLSX keyed by ID/Rev) and writes one row per question.

**Examples:**
• "Convert exams/cardiac-final.pdf with exams/cardiac-meta.xlsx for the North campus"
• "Convert dump.txt using the numbered dialect and save to out/dump.csv"

**Common workflows:**
1. Preview first: exam_preview_questions → check extraction → exam_convert_file
2. Unknown source: exam_detect_dialect → pass the dialect explicitly → exam_convert_file

**Notes:** Without an output path the CSV is returned inline. Topic columns all share the header "Tag: Topic".`

	DetectDialectDescription = `Identify which export dialect a document uses.

**When to use:** Before converting a file whose origin is unclear, or when a conversion returned no questions.

**What it does:** Decodes the document and looks for the boundary markers of each known dialect ("Question #: N", "N) stem", "Item ID: N"). Reports the dialect and how many question blocks it would produce.

**Examples:**
• "Which format is uploads/midterm.txt in?"`

	PreviewQuestionsDescription = `Show the questions extracted from a document without producing a CSV.

**When to use:** To sanity-check extraction on a new export before converting the whole batch.

**What it does:** Runs the same pipeline as exam_convert_file and lists the first questions with their choices, answers and resolved tags, followed by extraction statistics.

**Examples:**
• "Preview the first 5 questions of exams/cardiac-final.pdf"`

	ServerInfoDescription = `Get server information, available tools and the exam files in the configured directory.

**When to use:** At the start of a session to discover which documents and metadata sheets can be converted.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolConvertFile:      ConvertFileDescription,
	ToolDetectDialect:    DetectDialectDescription,
	ToolPreviewQuestions: PreviewQuestionsDescription,
	ToolServerInfo:       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
