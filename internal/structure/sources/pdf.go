// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/editalproj/edital-mcp/internal/structure"
)

var pdfMagic = []byte("%PDF-")

// wordGap is the horizontal distance, in text space units, above which two
// consecutive text runs on a row are separated by a space.
const wordGap = 1.0

// PDFOpener opens PDF documents and extracts page text row by row, so the
// line-oriented item and marker patterns see one table row per line.
type PDFOpener struct{}

func NewPDFOpener() *PDFOpener {
	return &PDFOpener{}
}

func (o *PDFOpener) Name() string {
	return "pdf"
}

// CanHandle returns true for a .pdf extension or content starting with %PDF-.
func (o *PDFOpener) CanHandle(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, pdfMagic)
}

// Open parses the PDF cross-reference table. Encrypted or corrupted files are
// reported as structure.ErrDocumentUnreadable.
func (o *PDFOpener) Open(_ context.Context, path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	reader, err := newPDFReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", structure.ErrDocumentUnreadable, err)
	}
	return &PDFDocument{file: f, reader: reader}, nil
}

func newPDFReader(r io.ReaderAt, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed PDF: %v", p)
		}
	}()
	return pdf.NewReader(r, size)
}

// PDFDocument is an opened PDF.
type PDFDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func (d *PDFDocument) PageCount(context.Context) (int, error) {
	return d.reader.NumPage(), nil
}

// PageText returns the text of the page at 0-based index. A page whose content
// stream cannot be decoded yields empty text, the unreadable-page signal.
func (d *PDFDocument) PageText(_ context.Context, index int) (string, error) {
	if index < 0 || index >= d.reader.NumPage() {
		return "", fmt.Errorf("page index %d out of range [0,%d)", index, d.reader.NumPage())
	}
	page := d.reader.Page(index + 1)
	if page.V.IsNull() {
		return "", nil
	}
	return pageRowsText(page), nil
}

func (d *PDFDocument) Close() error {
	return d.file.Close()
}

func pageRowsText(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	rows, err := page.GetTextByRow()
	if err != nil {
		plain, perr := page.GetPlainText(nil)
		if perr != nil {
			return ""
		}
		return plain
	}

	var b strings.Builder
	for _, row := range rows {
		var prev *pdf.Text
		for i := range row.Content {
			run := row.Content[i]
			if prev != nil && run.X-(prev.X+prev.W) > wordGap {
				b.WriteByte(' ')
			}
			b.WriteString(run.S)
			prev = &row.Content[i]
		}
		b.WriteByte('\n')
	}
	return b.String()
}
