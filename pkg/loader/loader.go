// Package loader extracts page-level text from PDF files.
package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"askpdf/internal/models"
)

// ErrNoExtractableText is returned when a PDF yields no text at all, for
// example a scanned document without an OCR layer.
var ErrNoExtractableText = errors.New("pdf contains no extractable text")

// LoadPDF reads the PDF at path and returns one Page per page that
// contains extractable text. Pages keep their original 1-based numbers,
// so a skipped image-only page leaves a hole in the sequence.
func LoadPDF(path string) ([]models.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var pages []models.Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unreadable pages are skipped; the document as a whole only
			// fails when nothing at all could be extracted.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, models.Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, ErrNoExtractableText
	}

	return pages, nil
}
