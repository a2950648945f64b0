package converter

import (
	"github.com/a3tai/es2aa/internal/exam"
)

// ConvertRequest describes one conversion
type ConvertRequest struct {
	Document string `json:"document"`
	Metadata string `json:"metadata,omitempty"`
	Campus   string `json:"campus,omitempty"`
	Dialect  string `json:"dialect,omitempty"`

	// MultipleChoiceOnly drops items whose metadata type is not multiple choice
	MultipleChoiceOnly bool `json:"mc_only,omitempty"`

	// Output is where ConvertFile writes the CSV; empty keeps it in memory
	Output string `json:"output,omitempty"`
}

// ConvertResult is the outcome of a conversion
type ConvertResult struct {
	Document string     `json:"document"`
	Metadata string     `json:"metadata,omitempty"`
	Output   string     `json:"output,omitempty"`
	FileName string     `json:"file_name"`
	Dialect  string     `json:"dialect"`
	Pages    int        `json:"pages,omitempty"`
	Encoding string     `json:"encoding"`
	Headers  []string   `json:"headers"`
	Stats    exam.Stats `json:"stats"`

	CSV       []byte          `json:"-"`
	Questions []exam.Question `json:"-"`
	Topics    []string        `json:"topics"`

	table *exam.Table
}

// DetectResult reports the dialect found in a document
type DetectResult struct {
	Path     string `json:"path"`
	Dialect  string `json:"dialect"`
	Detected bool   `json:"detected"`
	Blocks   int    `json:"blocks"`
	Encoding string `json:"encoding"`
	Pages    int    `json:"pages,omitempty"`
}

// FileInfo describes a convertible file found in the configured directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Dialects          []string   `json:"dialects"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	Truncated         bool       `json:"truncated"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// PreviewResult lists the first questions a conversion would produce
type PreviewResult struct {
	Document  string          `json:"document"`
	Dialect   string          `json:"dialect"`
	Stats     exam.Stats      `json:"stats"`
	Questions []exam.Question `json:"questions"`
}
