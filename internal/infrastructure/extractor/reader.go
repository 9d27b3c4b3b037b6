package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Reader extracts plain text from a source file, dispatching on the file
// extension. Unknown extensions fall back to plain-text reading.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) ReadDocument(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".docx":
		return readDOCX(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return readText(path)
	}
}

// readText loads a UTF-8 file; byte sequences that are not valid UTF-8
// are reinterpreted as latin-1 so legacy exports still ingest.
func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source file: %w", err)
	}
	if !utf8.Valid(raw) {
		raw = latin1ToUTF8(raw)
	}
	return strings.TrimSpace(string(raw)), nil
}

func latin1ToUTF8(raw []byte) []byte {
	out := make([]byte, 0, len(raw)*2)
	for _, b := range raw {
		out = utf8.AppendRune(out, rune(b))
	}
	return out
}

func copyTrimmed(reader io.Reader) (string, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}
