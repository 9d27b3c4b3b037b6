package extractor

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	text, err := copyTrimmed(reader)
	if err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	return text, nil
}
