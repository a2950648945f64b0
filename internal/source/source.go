package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned by the decoders. Callers match them with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("file is empty")
	ErrEncrypted         = errors.New("PDF is password protected")
	ErrNoText            = errors.New("no text content could be extracted")
	ErrMalformed         = errors.New("malformed file")

	errEmptyPath = errors.New("path cannot be empty")
)

// Kind identifies an input file format by extension
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindText Kind = "txt"
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
)

// IsDocument reports whether the kind carries exam text
func (k Kind) IsDocument() bool {
	return k == KindPDF || k == KindText
}

// IsSheet reports whether the kind carries tabular metadata
func (k Kind) IsSheet() bool {
	return k == KindCSV || k == KindXLSX
}

// KindOf returns the format for a file name based on its extension
func KindOf(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF, nil
	case ".txt", ".text":
		return KindText, nil
	case ".csv":
		return KindCSV, nil
	case ".xlsx":
		return KindXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Document is decoded exam text
type Document struct {
	Path     string
	Kind     Kind
	Text     string
	Pages    int
	Size     int64
	Encoding string

	// Encrypted is set for PDFs that carry an encryption dictionary but open
	// with the empty user password
	Encrypted bool
}

// Sheet is a decoded metadata table: the first non-empty row is the header
type Sheet struct {
	Path   string
	Kind   Kind
	Header []string
	Rows   [][]string
}

// Decoder reads exam documents and metadata sheets from disk
type Decoder struct {
	maxFileSize int64
	maxTextSize int
}

// NewDecoder creates a decoder that rejects files above maxFileSize bytes
func NewDecoder(maxFileSize int64) *Decoder {
	return &Decoder{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// MaxFileSize returns the configured size limit in bytes
func (d *Decoder) MaxFileSize() int64 {
	return d.maxFileSize
}

// DecodeDocument reads a PDF or plain-text exam export
func (d *Decoder) DecodeDocument(path string) (*Document, error) {
	if path == "" {
		return nil, errEmptyPath
	}
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	if !kind.IsDocument() {
		return nil, fmt.Errorf("%w: %s is not a PDF or text document", ErrUnsupportedFormat, filepath.Base(path))
	}

	info, err := d.check(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Path: path,
		Kind: kind,
		Size: info.Size(),
	}

	switch kind {
	case KindPDF:
		err = d.readPDF(path, doc)
	default:
		err = d.readText(path, doc)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoText, filepath.Base(path))
	}
	return doc, nil
}

// DecodeSheet reads a CSV or XLSX metadata table
func (d *Decoder) DecodeSheet(path string) (*Sheet, error) {
	if path == "" {
		return nil, errEmptyPath
	}
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	if !kind.IsSheet() {
		return nil, fmt.Errorf("%w: %s is not a CSV or XLSX sheet", ErrUnsupportedFormat, filepath.Base(path))
	}

	if _, err := d.check(path); err != nil {
		return nil, err
	}

	var records [][]string
	switch kind {
	case KindXLSX:
		records, err = readXLSX(path)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	sheet := newSheet(records)
	sheet.Path = path
	sheet.Kind = kind
	return sheet, nil
}

// check validates that path names a regular, non-empty file within the size limit
func (d *Decoder) check(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, errEmptyPath
	}

	// Errors name only the file; callers may show them to remote clients
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file %s: %w", name, errors.Unwrap(err))
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", name)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	if info.Size() > d.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, info.Size(), d.maxFileSize)
	}

	return info, nil
}
