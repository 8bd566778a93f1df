package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/spigell/jd-tailor/internal/pdftext"
)

// readDocument loads a job description or resume from a PDF or plain text file. "-" reads stdin.
func readDocument(path string, maxPages int) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	mime := mimetype.Detect(data)
	switch {
	case mime.Is("application/pdf"):
		text, err := pdftext.ExtractText(data, maxPages)
		if err != nil {
			return "", fmt.Errorf("extract text from %s: %w", path, err)
		}
		return text, nil
	case isText(mime):
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("%s is empty", path)
		}
		return text, nil
	default:
		return "", fmt.Errorf("unsupported document type %s for %s", mime.String(), path)
	}
}

func isText(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
