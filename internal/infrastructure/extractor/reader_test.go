package extractor

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadTextTrimsWhitespace(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.md", []byte("\n# Heading\n\nBody text.\n\n"))

	text, err := NewReader().ReadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if text != "# Heading\n\nBody text." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestReadTextFallsBackToLatin1(t *testing.T) {
	// 0xE9 is latin-1 "é" and invalid standalone UTF-8.
	path := writeFile(t, t.TempDir(), "legacy.txt", []byte{'c', 'a', 'f', 0xE9})

	text, err := NewReader().ReadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if text != "café" {
		t.Fatalf("expected latin-1 reinterpretation, got %q", text)
	}
}

func TestReadMissingFileFails(t *testing.T) {
	_, err := NewReader().ReadDocument(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestReadDocumentHonorsCancellation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.txt", []byte("content"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReader().ReadDocument(ctx, path); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func writeDOCX(t *testing.T, dir string, documentXML string) string {
	t.Helper()
	path := filepath.Join(dir, "report.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create archive entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write archive entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

func TestReadDOCXJoinsParagraphs(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph, </t></r><r><t>split across runs.</t></r></p>
    <p><r><t>   </t></r></p>
    <p><r><t>Second paragraph.</t></r></p>
  </body>
</document>`)

	text, err := NewReader().ReadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	want := "First paragraph, split across runs.\nSecond paragraph."
	if text != want {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestReadDOCXRejectsMissingBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	f.Close()

	_, err = NewReader().ReadDocument(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "word/document.xml") {
		t.Fatalf("expected missing body error, got %v", err)
	}
}
