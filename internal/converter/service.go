package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/a3tai/es2aa/internal/descriptions"
	"github.com/a3tai/es2aa/internal/exam"
	"github.com/a3tai/es2aa/internal/export"
	"github.com/a3tai/es2aa/internal/security"
	"github.com/a3tai/es2aa/internal/source"
)

const (
	// DefaultPreviewLimit is used when a preview asks for no particular count
	DefaultPreviewLimit = 10

	scanDepth     = 5
	scanFileLimit = 100
	scanTimeout   = 5 * time.Second
)

// Service orchestrates decoding, extraction and export for one configured
// directory
type Service struct {
	decoder  *source.Decoder
	paths    *security.PathValidator
	scanner  *Scanner
	defaults exam.Options
	log      zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger used for conversion summaries
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithDefaults sets the campus, dialect and multiple-choice filter applied
// when a request leaves them unset
func WithDefaults(opts exam.Options) Option {
	return func(s *Service) {
		s.defaults = opts
	}
}

// NewService creates a conversion service confined to directory
func NewService(maxFileSize int64, directory string, opts ...Option) (*Service, error) {
	paths, err := security.NewPathValidator(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	s := &Service{
		decoder: source.NewDecoder(maxFileSize),
		paths:   paths,
		scanner: NewScanner(scanDepth, scanFileLimit, scanTimeout),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxFileSize returns the configured file size limit
func (s *Service) MaxFileSize() int64 {
	return s.decoder.MaxFileSize()
}

// Directory returns the absolute configured directory
func (s *Service) Directory() string {
	return s.paths.Root()
}

// Convert runs the pipeline over files the caller has already vetted, such
// as uploads staged by the HTTP handler. The CSV is returned in memory.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	opts := s.options(req)

	doc, err := s.decoder.DecodeDocument(req.Document)
	if err != nil {
		return nil, err
	}

	var metadata *exam.MetadataTable
	if req.Metadata != "" {
		sheet, err := s.decoder.DecodeSheet(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		metadata = exam.MetadataFromRows(sheet.Header, sheet.Rows)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	converted, err := exam.Convert(doc.Text, metadata, opts)
	if err != nil {
		return nil, err
	}

	csv, err := export.CSVBytes(converted.Table)
	if err != nil {
		return nil, err
	}

	result := &ConvertResult{
		Document:  req.Document,
		Metadata:  req.Metadata,
		FileName:  export.FileName(req.Document),
		Dialect:   converted.Dialect,
		Pages:     doc.Pages,
		Encoding:  doc.Encoding,
		Headers:   converted.Table.Headers(),
		Stats:     converted.Stats,
		CSV:       csv,
		Questions: converted.Questions,
		Topics:    converted.Table.DistinctTopics,
		table:     converted.Table,
	}

	event := s.log.Info()
	if converted.Stats.Incomplete > 0 || converted.Stats.Questions == 0 {
		event = s.log.Warn()
	}
	event.
		Str("document", req.Document).
		Str("dialect", converted.Dialect).
		Str("encoding", doc.Encoding).
		Int("blocks", converted.Stats.Blocks).
		Int("questions", converted.Stats.Questions).
		Int("incomplete", converted.Stats.Incomplete).
		Int("filtered", converted.Stats.Filtered).
		Int("matched", converted.Stats.Matched).
		Int("topics", converted.Stats.Topics).
		Dur("duration", time.Since(start)).
		Msg("conversion finished")

	return result, nil
}

// ConvertFile converts files inside the configured directory. When
// req.Output is set the CSV is also written there.
func (s *Service) ConvertFile(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	var err error
	if req.Document, err = s.paths.Resolve(req.Document); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if req.Metadata != "" {
		if req.Metadata, err = s.paths.Resolve(req.Metadata); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}
	if req.Output != "" {
		if req.Output, err = s.paths.ResolveOutput(req.Output); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}

	result, err := s.Convert(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Output != "" {
		if err := export.WriteCSVFile(req.Output, result.table); err != nil {
			return nil, err
		}
		result.Output = req.Output
		s.log.Debug().Str("output", req.Output).Int("bytes", len(result.CSV)).Msg("wrote csv")
	}
	return result, nil
}

// DetectDialect decodes a document and reports which dialect it uses
func (s *Service) DetectDialect(ctx context.Context, path string) (*DetectResult, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.decoder.DecodeDocument(resolved)
	if err != nil {
		return nil, err
	}

	result := &DetectResult{
		Path:     resolved,
		Encoding: doc.Encoding,
		Pages:    doc.Pages,
	}
	if ex, ok := exam.Detect(exam.Normalize(doc.Text)); ok {
		result.Dialect = ex.Spec().Name
		result.Detected = true
		result.Blocks = len(exam.Segment(doc.Text, ex.Spec()))
	}
	return result, nil
}

// Preview converts a document and keeps the first limit questions
func (s *Service) Preview(ctx context.Context, req ConvertRequest, limit int) (*PreviewResult, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	req.Output = ""

	converted, err := s.ConvertFile(ctx, req)
	if err != nil {
		return nil, err
	}

	questions := converted.Questions
	if len(questions) > limit {
		questions = questions[:limit]
	}
	return &PreviewResult{
		Document:  converted.Document,
		Dialect:   converted.Dialect,
		Stats:     converted.Stats,
		Questions: questions,
	}, nil
}

// ServerInfo describes the server and lists convertible files in the
// configured directory. Scan failures leave the listing empty.
func (s *Service) ServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout*2)
	defer cancel()

	files := []FileInfo{}
	truncated := false
	scan, err := s.scanner.Scan(scanCtx, s.paths.Root())
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil {
		if scan.Files != nil {
			files = scan.Files
		}
		truncated = scan.Truncated
	}

	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  s.paths.Root(),
		MaxFileSize:       s.MaxFileSize(),
		Dialects:          exam.DialectNames(),
		AvailableTools:    availableTools(),
		DirectoryContents: files,
		Truncated:         truncated,
		UsageGuidance:     s.usageGuidance(),
	}, nil
}

// options merges request values over the service defaults
func (s *Service) options(req ConvertRequest) exam.Options {
	opts := s.defaults
	if req.Campus != "" {
		opts.Campus = req.Campus
	}
	if req.Dialect != "" {
		opts.Dialect = req.Dialect
	}
	if req.MultipleChoiceOnly {
		opts.MultipleChoiceOnly = true
	}
	return opts
}

func availableTools() []ToolInfo {
	params := map[string]string{
		descriptions.ToolConvertFile: "document (required): PDF or text export, " +
			"metadata (optional): CSV or XLSX sheet keyed by ID/Rev, campus (optional), " +
			"dialect (optional), mc_only (optional), output (optional): CSV path to write",
		descriptions.ToolDetectDialect:    "path (required): PDF or text export",
		descriptions.ToolPreviewQuestions: "path (required), metadata (optional), dialect (optional), " +
			"limit (optional, default 10)",
		descriptions.ToolServerInfo:       "none",
	}

	names := descriptions.GetAllToolNames()
	tools := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolInfo{
			Name:        name,
			Description: descriptions.GetToolDescription(name),
			Parameters:  params[name],
		})
	}
	return tools
}

func (s *Service) usageGuidance() string {
	return `Exam Conversion Server Usage Guide:

1. DISCOVER: exam_server_info lists PDF, text, CSV and XLSX files in the configured directory.
2. IDENTIFY: exam_detect_dialect reports whether a document is an ExamSoft dump, a numbered export or an item-bank export.
3. CHECK: exam_preview_questions shows the first extracted questions with their answers and tags.
4. CONVERT: exam_convert_file writes the assessment CSV, optionally merging a metadata sheet.

IMPORTANT NOTES:
- Paths are resolved relative to the configured directory and may not leave it
- Files up to ` + fmt.Sprintf("%d", s.MaxFileSize()/(1024*1024)) + `MB are accepted
- Scanned PDFs without a text layer cannot be converted`
}
