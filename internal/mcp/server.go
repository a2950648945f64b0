package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/a3tai/es2aa/internal/config"
	"github.com/a3tai/es2aa/internal/converter"
	"github.com/a3tai/es2aa/internal/descriptions"
	"github.com/a3tai/es2aa/internal/exam"
)

// inlineCSVLimit caps how much CSV is echoed back when no output path is given
const inlineCSVLimit = 256 * 1024

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	converter *converter.Service
	mcpServer *server.MCPServer
	log       zerolog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *converter.Service, log zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("converter service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		converter: svc,
		mcpServer: mcpServer,
		log:       log,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	convertTool := mcp.NewTool(
		descriptions.ToolConvertFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolConvertFile)),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("PDF or text exam export, absolute or relative to the configured directory"),
		),
		mcp.WithString("metadata",
			mcp.Description("Optional CSV or XLSX metadata sheet keyed by ID/Rev"),
		),
		mcp.WithString("campus",
			mcp.Description("Value for the campus tag column"),
		),
		mcp.WithString("dialect",
			mcp.Description("Force a dialect: "+strings.Join(exam.DialectNames(), ", ")),
			mcp.Enum(exam.DialectNames()...),
		),
		mcp.WithBoolean("mc_only",
			mcp.Description("Drop questions whose metadata type is not multiple choice"),
		),
		mcp.WithString("output",
			mcp.Description("Where to write the CSV; when omitted the CSV is returned inline"),
		),
	)
	s.mcpServer.AddTool(convertTool, s.handleConvertFile)

	detectTool := mcp.NewTool(
		descriptions.ToolDetectDialect,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolDetectDialect)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF or text exam export"),
		),
	)
	s.mcpServer.AddTool(detectTool, s.handleDetectDialect)

	previewTool := mcp.NewTool(
		descriptions.ToolPreviewQuestions,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPreviewQuestions)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF or text exam export"),
		),
		mcp.WithString("metadata",
			mcp.Description("Optional CSV or XLSX metadata sheet keyed by ID/Rev"),
		),
		mcp.WithString("dialect",
			mcp.Description("Force a dialect: "+strings.Join(exam.DialectNames(), ", ")),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("How many questions to show (default %d)", converter.DefaultPreviewLimit)),
		),
	)
	s.mcpServer.AddTool(previewTool, s.handlePreviewQuestions)

	infoTool := mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	)
	s.mcpServer.AddTool(infoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleConvertFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := converter.ConvertRequest{
		Document:           document,
		Metadata:           stringArg(args, "metadata"),
		Campus:             stringArg(args, "campus"),
		Dialect:            stringArg(args, "dialect"),
		Output:             stringArg(args, "output"),
		MultipleChoiceOnly: boolArg(args, "mc_only"),
	}

	result, err := s.converter.ConvertFile(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatConvertResult(result)), nil
}

func (s *Server) handleDetectDialect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.converter.DetectDialect(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatDetectResult(result)), nil
}

func (s *Server) handlePreviewQuestions(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := converter.ConvertRequest{
		Document: path,
		Metadata: stringArg(args, "metadata"),
		Dialect:  stringArg(args, "dialect"),
	}
	limit := converter.DefaultPreviewLimit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	result, err := s.converter.Preview(ctx, req, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPreviewResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.converter.ServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

func stringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func boolArg(args map[string]interface{}, name string) bool {
	switch v := args[name].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

// Formatting methods
func (s *Server) formatConvertResult(result *converter.ConvertResult) string {
	text := fmt.Sprintf("Converted: %s\n", result.Document)
	if result.Metadata != "" {
		text += fmt.Sprintf("Metadata: %s\n", result.Metadata)
	}
	text += s.formatStats(result.Dialect, result.Stats)
	if result.Encoding != "" {
		text += fmt.Sprintf("Encoding: %s\n", result.Encoding)
	}
	if result.Pages > 0 {
		text += fmt.Sprintf("Pages: %d\n", result.Pages)
	}
	if len(result.Topics) > 0 {
		text += fmt.Sprintf("Topics: %s\n", strings.Join(result.Topics, ", "))
	}
	text += fmt.Sprintf("Columns: %d\n", len(result.Headers))

	if result.Stats.Questions == 0 {
		text += "\n⚠️  WARNING: No questions were extracted. Use exam_detect_dialect to check the document format.\n"
	} else if result.Stats.Incomplete > 0 {
		text += fmt.Sprintf("\n⚠️  WARNING: %d question(s) are missing a stem or an answer. "+
			"Review them with exam_preview_questions.\n", result.Stats.Incomplete)
	}

	if result.Output != "" {
		text += fmt.Sprintf("\nCSV written to: %s (%d bytes)\n", result.Output, len(result.CSV))
		return text
	}

	text += fmt.Sprintf("\nCSV (%s):\n", result.FileName)
	if len(result.CSV) > inlineCSVLimit {
		text += string(result.CSV[:inlineCSVLimit])
		text += fmt.Sprintf("\n... truncated, %d bytes total. Pass an output path to get the full file.\n",
			len(result.CSV))
		return text
	}
	text += string(result.CSV)
	return text
}

func (s *Server) formatStats(dialect string, stats exam.Stats) string {
	if dialect == "" {
		dialect = "not detected"
	}
	text := fmt.Sprintf("Dialect: %s\n", dialect)
	text += fmt.Sprintf("Questions: %d (of %d blocks)\n", stats.Questions, stats.Blocks)
	if stats.Matched > 0 {
		text += fmt.Sprintf("Matched metadata rows: %d\n", stats.Matched)
	}
	if stats.Filtered > 0 {
		text += fmt.Sprintf("Filtered (not multiple choice): %d\n", stats.Filtered)
	}
	if stats.Incomplete > 0 {
		text += fmt.Sprintf("Incomplete: %d\n", stats.Incomplete)
	}
	return text
}

func (s *Server) formatDetectResult(result *converter.DetectResult) string {
	text := fmt.Sprintf("Document: %s\n", result.Path)
	text += fmt.Sprintf("Encoding: %s\n", result.Encoding)
	if result.Pages > 0 {
		text += fmt.Sprintf("Pages: %d\n", result.Pages)
	}
	if !result.Detected {
		text += "Dialect: not detected\n"
		text += "\n⚠️  No known question markers were found. Supported dialects: " +
			strings.Join(exam.DialectNames(), ", ") + "\n"
		return text
	}
	text += fmt.Sprintf("Dialect: %s\n", result.Dialect)
	text += fmt.Sprintf("Question blocks: %d\n", result.Blocks)
	return text
}

func (s *Server) formatPreviewResult(result *converter.PreviewResult) string {
	text := fmt.Sprintf("Preview of: %s\n", result.Document)
	text += s.formatStats(result.Dialect, result.Stats)

	if len(result.Questions) == 0 {
		return text + "\nNo questions extracted.\n"
	}

	text += fmt.Sprintf("\nShowing %d of %d question(s):\n", len(result.Questions), result.Stats.Questions)
	for i := range result.Questions {
		text += "\n" + formatQuestion(i+1, &result.Questions[i])
	}
	return text
}

func formatQuestion(n int, q *exam.Question) string {
	id := exam.DisplayID(q.Level, q.ID)
	if id == "" {
		id = "(no id)"
	}
	text := fmt.Sprintf("%d. [%s]", n, id)
	if q.Title != "" {
		text += " " + q.Title
	}
	text += "\n"

	stem := q.Stem
	if stem == "" {
		stem = "(empty stem)"
	}
	text += fmt.Sprintf("   %s\n", stem)
	for i, choice := range q.Choices {
		if choice == "" {
			continue
		}
		text += fmt.Sprintf("   %s. %s\n", exam.LetterAt(i), choice)
	}

	answer := q.Answer.String()
	if answer == "" {
		answer = "(missing)"
	}
	text += fmt.Sprintf("   Answer: %s\n", answer)
	if q.Rationale != "" {
		text += fmt.Sprintf("   Rationale: %s\n", q.Rationale)
	}

	var tags []string
	for _, tag := range []struct{ label, value string }{
		{"Course", q.Course},
		{"Level", q.Level},
		{"Bloom's", q.Bloom},
		{"NCLEX", q.Domain},
		{"Type", q.Type},
	} {
		if tag.value != "" {
			tags = append(tags, tag.label+": "+tag.value)
		}
	}
	if len(q.Topics) > 0 {
		tags = append(tags, "Topics: "+strings.Join(q.Topics, ", "))
	}
	if len(tags) > 0 {
		text += fmt.Sprintf("   Tags: %s\n", strings.Join(tags, " | "))
	}
	return text
}

func (s *Server) formatServerInfoResult(result *converter.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🗂️  Dialects: %s\n\n", strings.Join(result.Dialects, ", "))

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d exam files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 20 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-20)
				break
			}
			text += fmt.Sprintf("   %d. %s [%s] (%d bytes)\n", i+1, file.Name, file.Kind, file.Size)
		}
		if result.Truncated {
			text += "   (listing truncated)\n"
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No exam files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		summary, _, _ := strings.Cut(tool.Description, "\n")
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", summary)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.log.Info().
		Str("directory", s.converter.Directory()).
		Str("version", s.config.Version).
		Msg("Starting MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
