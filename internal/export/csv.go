package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a3tai/es2aa/internal/exam"
)

// ContentType is the MIME type of the CSV output
const ContentType = "text/csv; charset=utf-8"

// WriteCSV writes the header line followed by every row of table. Repeated
// group headers are written as they are, so the output can contain several
// columns with the same name.
func WriteCSV(w io.Writer, table *exam.Table) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("inconsistent table: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(table.Records()); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// CSVBytes renders table as CSV in memory
func CSVBytes(table *exam.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSVFile writes table to path, replacing any existing file. Output goes
// to a temporary sibling first and is renamed into place.
func WriteCSVFile(path string, table *exam.Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, table); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// FileName derives the download name for a converted document
func FileName(document string) string {
	base := filepath.Base(document)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "questions"
	}
	return base + ".csv"
}
