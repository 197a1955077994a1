package fetch

import (
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfText extracts plain text from every readable page of a PDF document.
// Pages that fail to decode are skipped.
func pdfText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return cleanPDFText(b.String()), nil
}

// cleanPDFText drops blank and very short lines, which are mostly page
// furniture such as numbers and running headers.
func cleanPDFText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 2 {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}
