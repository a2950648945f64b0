package source

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding labels reported on Document
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingWindows1252 = "windows-1252"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

func (d *Decoder) readText(path string, doc *Document) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read text file: %w", err)
	}

	text, enc, err := decodeText(raw)
	if err != nil {
		return err
	}
	if len(text) > d.maxTextSize {
		return fmt.Errorf("%w: decoded text is %d bytes (max: %d bytes)",
			ErrFileTooLarge, len(text), d.maxTextSize)
	}

	doc.Text = text
	doc.Encoding = enc
	return nil
}

// decodeText converts raw bytes to UTF-8. UTF-16 is recognized by its byte
// order mark; anything else that is not valid UTF-8 is read as Windows-1252,
// the encoding exam exports fall back to on Windows hosts.
func decodeText(raw []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(raw, utf16LEBOM), bytes.HasPrefix(raw, utf16BEBOM):
		out, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), raw)
		if err != nil {
			return "", "", fmt.Errorf("failed to decode UTF-16 text: %w", err)
		}
		return string(out), EncodingUTF16, nil

	case utf8.Valid(raw):
		return string(bytes.TrimPrefix(raw, utf8BOM)), EncodingUTF8, nil

	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", "", fmt.Errorf("failed to decode Windows-1252 text: %w", err)
		}
		return string(out), EncodingWindows1252, nil
	}
}
