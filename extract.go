package cerebro

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractedDocument is one source document reduced to plain text.
type ExtractedDocument struct {
	Name string
	Text string
}

// ExtractText reads a PDF or plain-text file into a string. The format is
// chosen by extension; anything that is not a PDF is treated as text.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDFText(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

// CombineDocuments concatenates extracted documents into the single text
// blob the rest of the pipeline works from, with a header per document so
// generated material can name its source.
func CombineDocuments(docs []ExtractedDocument) string {
	var sb strings.Builder
	for _, doc := range docs {
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- Document: %s ---\n\n", doc.Name)
		sb.WriteString(text)
	}
	return strings.TrimSpace(sb.String())
}
