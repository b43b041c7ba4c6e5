package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func fromPDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	content, err := reader.GetPlainText()
	if err == nil {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(content); err != nil {
			return "", fmt.Errorf("read pdf text: %w", err)
		}
		return buf.String(), nil
	}

	// Scanned or partially damaged files often still yield text page by
	// page; pages that fail are dropped rather than failing the document.
	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return strings.Join(pages, "\n"), nil
}
