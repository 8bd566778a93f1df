package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxPages is the number of leading pages read from an upload.
const DefaultMaxPages = 2

var ErrNoText = errors.New("pdf contains no extractable text")

// ExtractText returns the plain text of the first maxPages pages of a PDF document.
// A non-positive maxPages falls back to DefaultMaxPages.
func ExtractText(data []byte, maxPages int) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("pdf is empty")
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	pages := min(reader.NumPage(), maxPages)

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(pageText)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}

	return b.String(), nil
}
