// Package pdftest builds small, valid PDF files for tests. Documents use
// uncompressed content streams and the built-in Helvetica font so that
// text extraction does not depend on embedded font programs.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// WithText returns a single-page PDF that draws the given ASCII text.
func WithText(text string) []byte {
	return WithPages([]string{text})
}

// Blank returns a single-page PDF with an empty content stream, i.e. a
// page with no extractable text.
func Blank() []byte {
	return WithPages([]string{""})
}

// WithPages returns a PDF with one page per entry. An empty entry
// produces a blank page.
func WithPages(pageTexts []string) []byte {
	// Object layout: 1 catalog, 2 page tree, 3 font, then for page i
	// (0-based) the page object 4+2i and its content stream 5+2i.
	numObjects := 3 + 2*len(pageTexts)

	var buf bytes.Buffer
	offsets := make([]int, numObjects+1)

	writeObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pageTexts))
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pageTexts)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, text := range pageTexts {
		pageNum := 4 + 2*i
		contentNum := 5 + 2*i

		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentNum))

		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escapeString(text))
		}
		writeObj(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream",
			len(content), content))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", numObjects+1)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= numObjects; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		numObjects+1, xrefOffset)

	return buf.Bytes()
}

func escapeString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
