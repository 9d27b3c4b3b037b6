package extractor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// docx files are zip archives; the body text lives in word/document.xml
// as runs of <w:t> elements grouped into <w:p> paragraphs.
type docxDocument struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []string `xml:"r>t"`
}

func readDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open docx body: %w", err)
		}
		defer rc.Close()

		var doc docxDocument
		if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}

		paragraphs := make([]string, 0, len(doc.Paragraphs))
		for _, p := range doc.Paragraphs {
			text := strings.Join(p.Runs, "")
			if strings.TrimSpace(text) != "" {
				paragraphs = append(paragraphs, text)
			}
		}
		return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
	}
	return "", fmt.Errorf("docx archive has no word/document.xml")
}
