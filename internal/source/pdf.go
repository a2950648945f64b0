package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageBreak separates page texts. Normalization drops it again, so it only
// keeps page-final and page-initial words from running together.
const PageBreak = "\n\n--- Page Break ---\n\n"

func (d *Decoder) readPDF(path string, doc *Document) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, encrypted, err := inspectPDF(f)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind PDF: %w", err)
	}

	r, err := pdf.NewReader(f, doc.Size)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}

	doc.Pages = pages
	doc.Encrypted = encrypted
	doc.Encoding = "pdf"
	text, err := d.extractText(r)
	if err != nil {
		return err
	}
	doc.Text = text
	return nil
}

// inspectPDF runs the document through pdfcpu in relaxed mode. It rejects
// files that are not PDFs or need a password, and returns the page count.
func inspectPDF(rs io.ReadSeeker) (int, bool, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "password") {
			return 0, false, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return 0, false, fmt.Errorf("%w: invalid PDF file: %w", ErrMalformed, err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return 0, false, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return ctx.PageCount, ctx.Encrypt != nil, nil
}

// extractText concatenates the plain text of every page
func (d *Decoder) extractText(r *pdf.Reader) (string, error) {
	return d.joinPages(r.NumPage(), func(pageNum int) (string, error) {
		return pageText(r, pageNum)
	})
}

// joinPages collects page texts separated by PageBreak. A page that cannot be
// read fails the whole document, as does text beyond the size limit.
func (d *Decoder) joinPages(numPages int, page func(int) (string, error)) (string, error) {
	var builder strings.Builder

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		content, err := page(pageNum)
		if err != nil {
			return "", err
		}
		if content == "" {
			continue
		}

		if builder.Len()+len(content) > d.maxTextSize {
			return "", fmt.Errorf("%w: extracted text exceeds %d bytes at page %d",
				ErrFileTooLarge, d.maxTextSize, pageNum)
		}
		if builder.Len() > 0 {
			builder.WriteString(PageBreak)
		}
		builder.WriteString(content)
	}

	return builder.String(), nil
}

// pageText returns the text of one page. Pages without text yield "".
func pageText(r *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: page %d: %v", ErrMalformed, pageNum, p)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("%w: page %d not found", ErrMalformed, pageNum)
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrMalformed, pageNum, err)
	}
	return content, nil
}
