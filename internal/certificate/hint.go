package certificate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// maxHintText bounds the page text added to a profile hint.
const maxHintText = 2048

// PageText returns the plain text of the first page with whitespace
// collapsed, truncated to limit bytes on a rune boundary.
func PageText(path string, limit int) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF for text: %w", err)
	}
	defer f.Close()

	if reader.NumPage() < 1 {
		return "", nil
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract page text: %w", err)
	}

	text := strings.Join(strings.Fields(content), " ")
	if limit > 0 && len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text, nil
}
