package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Kind
		wantErr bool
	}{
		{"exam.pdf", KindPDF, false},
		{"EXAM.PDF", KindPDF, false},
		{"dump.txt", KindText, false},
		{"meta.csv", KindCSV, false},
		{"meta.xlsx", KindXLSX, false},
		{"meta.xls", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := KindOf(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		want     string
		encoding string
	}{
		{
			name:     "utf-8",
			raw:      []byte("Question #: 1 ✓"),
			want:     "Question #: 1 ✓",
			encoding: EncodingUTF8,
		},
		{
			name:     "utf-8 with bom",
			raw:      append([]byte{0xEF, 0xBB, 0xBF}, []byte("ID/Rev")...),
			want:     "ID/Rev",
			encoding: EncodingUTF8,
		},
		{
			name:     "windows-1252",
			raw:      []byte("caf\xe9 \x93quoted\x94"),
			want:     "café “quoted”",
			encoding: EncodingWindows1252,
		},
		{
			name:     "utf-16 little endian",
			raw:      []byte{0xFF, 0xFE, 'H', 0x00, 'i', 0x00},
			want:     "Hi",
			encoding: EncodingUTF16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := decodeText(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.encoding, enc)
		})
	}
}

func TestDecoder_DecodeDocument_Text(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dump.txt", []byte("Question #: 1\nWhat is 2+2?\nA. 3\n\xfbB. 4\n"))

	doc, err := NewDecoder(1024).DecodeDocument(path)
	require.NoError(t, err)

	assert.Equal(t, KindText, doc.Kind)
	assert.Equal(t, EncodingWindows1252, doc.Encoding)
	assert.Contains(t, doc.Text, "What is 2+2?")
	assert.Equal(t, int64(len("Question #: 1\nWhat is 2+2?\nA. 3\n\xfbB. 4\n")), doc.Size)
}

func TestDecoder_DecodeDocument_Errors(t *testing.T) {
	dir := t.TempDir()
	large := writeFile(t, dir, "large.txt", make([]byte, 2048))
	empty := writeFile(t, dir, "empty.txt", nil)
	blank := writeFile(t, dir, "blank.txt", []byte("   \n\n  "))
	sheet := writeFile(t, dir, "meta.csv", []byte("ID/Rev\n1\n"))
	notPDF := writeFile(t, dir, "fake.pdf", []byte("This is not a PDF at all"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.txt"), 0o755))

	decoder := NewDecoder(1024)

	tests := []struct {
		name   string
		path   string
		target error
		errMsg string
	}{
		{"empty path", "", nil, "path cannot be empty"},
		{"missing", filepath.Join(dir, "missing.txt"), nil, "file does not exist"},
		{"directory", filepath.Join(dir, "folder.txt"), nil, "path is a directory"},
		{"too large", large, ErrFileTooLarge, "2048 bytes"},
		{"empty", empty, ErrEmptyFile, "empty.txt"},
		{"whitespace only", blank, ErrNoText, ""},
		{"sheet as document", sheet, ErrUnsupportedFormat, ""},
		{"not a pdf", notPDF, ErrMalformed, "invalid PDF file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decoder.DecodeDocument(tt.path)
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), err.Error())
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
			assert.NotContains(t, err.Error(), dir)
		})
	}
}

func TestDecoder_DecodeDocument_TextOverLimit(t *testing.T) {
	dir := t.TempDir()
	decoder := &Decoder{maxFileSize: 1024, maxTextSize: 32}

	exact := writeFile(t, dir, "exact.txt", []byte(strings.Repeat("a", 32)))
	doc, err := decoder.DecodeDocument(exact)
	require.NoError(t, err)
	assert.Len(t, doc.Text, 32)

	over := writeFile(t, dir, "over.txt", []byte(strings.Repeat("é", 17)))
	_, err = decoder.DecodeDocument(over)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileTooLarge), err.Error())
	assert.Contains(t, err.Error(), "34 bytes")
}

func TestDecoder_JoinPages(t *testing.T) {
	pages := map[int]string{1: "first page", 2: "", 3: "third page"}
	text := func(n int) (string, error) { return pages[n], nil }

	t.Run("skips blank pages", func(t *testing.T) {
		decoder := &Decoder{maxTextSize: 1024}
		got, err := decoder.joinPages(3, text)
		require.NoError(t, err)
		assert.Equal(t, "first page"+PageBreak+"third page", got)
	})

	t.Run("text over limit fails", func(t *testing.T) {
		decoder := &Decoder{maxTextSize: 15}
		_, err := decoder.joinPages(3, text)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFileTooLarge), err.Error())
		assert.Contains(t, err.Error(), "page 3")
	})

	t.Run("unreadable page fails", func(t *testing.T) {
		decoder := &Decoder{maxTextSize: 1024}
		broken := func(n int) (string, error) {
			if n == 2 {
				return "", fmt.Errorf("%w: page %d: bad content stream", ErrMalformed, n)
			}
			return pages[n], nil
		}
		got, err := decoder.joinPages(3, broken)
		require.Error(t, err)
		assert.Empty(t, got)
		assert.True(t, errors.Is(err, ErrMalformed), err.Error())
		assert.Contains(t, err.Error(), "page 2")
	})
}

func TestDecoder_DecodeSheet_CSV(t *testing.T) {
	dir := t.TempDir()
	content := "\ufeffTitle,ID/Rev,Categories\n\n" +
		"Cardiac Meds,100/2,\"NU 210, Topical/Cardiac\"\n" +
		"Renal,101\n"
	path := writeFile(t, dir, "meta.csv", []byte(content))

	sheet, err := NewDecoder(1024).DecodeSheet(path)
	require.NoError(t, err)

	assert.Equal(t, KindCSV, sheet.Kind)
	assert.Equal(t, []string{"Title", "ID/Rev", "Categories"}, sheet.Header)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, []string{"Cardiac Meds", "100/2", "NU 210, Topical/Cardiac"}, sheet.Rows[0])
	assert.Equal(t, []string{"Renal", "101"}, sheet.Rows[1])
}

func TestDecoder_DecodeSheet_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.xlsx")

	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	cells := [][]string{
		{"ID/Rev", "Categories", "Type", "Rationale"},
		{"100/1", "NU 550, 03 - Applying", "mchoice", "Because."},
	}
	for r, row := range cells {
		for c, value := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheetName, name, value))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sheet, err := NewDecoder(1024 * 1024).DecodeSheet(path)
	require.NoError(t, err)

	assert.Equal(t, KindXLSX, sheet.Kind)
	assert.Equal(t, cells[0], sheet.Header)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, cells[1], sheet.Rows[0])
}

func TestDecoder_DecodeSheet_RejectsDocuments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dump.txt", []byte("Question #: 1"))

	_, err := NewDecoder(1024).DecodeSheet(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestNewSheet_SkipsBlankRows(t *testing.T) {
	s := newSheet([][]string{{"", " "}, {"ID"}, {""}, {"1"}})

	assert.Equal(t, []string{"ID"}, s.Header)
	assert.Equal(t, [][]string{{"1"}}, s.Rows)
}
