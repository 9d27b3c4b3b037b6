package entity

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadDictionaryParsesSections(t *testing.T) {
	content := `# Medical Entities

## Anatomical Structures
- rotator cuff
- humerus

## Pathological Conditions
- tendinopathy

## Unknown Section
- ignored term

## Medical Devices
- suture anchor
`
	path := filepath.Join(t.TempDir(), "entities.md")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	dict, err := LoadDictionary(path, discardLogger())
	if err != nil {
		t.Fatalf("LoadDictionary() error = %v", err)
	}

	if !reflect.DeepEqual(dict.Terms(CategoryAnatomical), []string{"rotator cuff", "humerus"}) {
		t.Fatalf("anatomical terms: %v", dict.Terms(CategoryAnatomical))
	}
	if !reflect.DeepEqual(dict.Terms(CategoryPathological), []string{"tendinopathy"}) {
		t.Fatalf("pathological terms: %v", dict.Terms(CategoryPathological))
	}
	if len(dict.Terms(CategoryTreatment)) != 0 {
		t.Fatalf("expected no treatment terms, got %v", dict.Terms(CategoryTreatment))
	}
	if dict.Size() != 4 {
		t.Fatalf("expected 4 terms total, got %d", dict.Size())
	}
}

func TestLoadDictionaryMissingFileYieldsEmpty(t *testing.T) {
	dict, err := LoadDictionary(filepath.Join(t.TempDir(), "absent.md"), discardLogger())
	if err != nil {
		t.Fatalf("LoadDictionary() error = %v", err)
	}
	if dict.Size() != 0 {
		t.Fatalf("expected empty dictionary, got %d terms", dict.Size())
	}
}
