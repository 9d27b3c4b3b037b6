package entity

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
)

// Category names the fixed set of domain entity categories.
type Category string

const (
	CategoryAnatomical   Category = "anatomical_structures"
	CategoryPathological Category = "pathological_conditions"
	CategoryTreatment    Category = "treatment_procedures"
	CategoryDevice       Category = "medical_devices"
)

// headerCategories maps the markdown section headers of the entities file to
// their category.
var headerCategories = map[string]Category{
	"Anatomical Structures":   CategoryAnatomical,
	"Pathological Conditions": CategoryPathological,
	"Treatment Procedures":    CategoryTreatment,
	"Medical Devices":         CategoryDevice,
}

// Dictionary maps each category to its known canonical terms. Loaded once at
// startup and read-only afterward.
type Dictionary struct {
	terms map[Category][]string
}

// LoadDictionary parses a markdown entities file: `## <Category>` headers
// open a section, `- term` lines add terms, unknown sections are ignored.
// A missing file yields an empty dictionary with a warning, not an error.
func LoadDictionary(path string, logger *slog.Logger) (*Dictionary, error) {
	d := &Dictionary{terms: emptyTerms()}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("entities file not found, using empty dictionary", "path", path)
			return d, nil
		}
		return nil, err
	}
	defer file.Close()

	var current Category
	known := false

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "## "):
			current, known = headerCategories[strings.TrimSpace(line[3:])]
		case strings.HasPrefix(line, "- ") && known:
			term := strings.TrimSpace(line[2:])
			if term != "" {
				d.terms[current] = append(d.terms[current], term)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewDictionary builds a dictionary from in-memory term lists. Used by tests
// and by callers that source terms elsewhere.
func NewDictionary(terms map[Category][]string) *Dictionary {
	d := &Dictionary{terms: emptyTerms()}
	for category, list := range terms {
		d.terms[category] = append(d.terms[category], list...)
	}
	return d
}

// Terms returns the known terms for a category.
func (d *Dictionary) Terms(category Category) []string {
	return d.terms[category]
}

// Size returns the total number of known terms across categories.
func (d *Dictionary) Size() int {
	n := 0
	for _, list := range d.terms {
		n += len(list)
	}
	return n
}

func emptyTerms() map[Category][]string {
	return map[Category][]string{
		CategoryAnatomical:   nil,
		CategoryPathological: nil,
		CategoryTreatment:    nil,
		CategoryDevice:       nil,
	}
}
