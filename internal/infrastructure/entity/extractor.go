package entity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// matchStrategy decides how a dictionary term is matched against chunk text.
// All matching is case-insensitive. Anatomical structures additionally
// require word boundaries; the other categories use plain substring
// containment. The asymmetry is inherited behavior and is kept deliberate
// and explicit here rather than silently unified.
type matchStrategy int

const (
	matchSubstring matchStrategy = iota
	matchWordBoundary
)

var categoryStrategies = map[Category]matchStrategy{
	CategoryAnatomical:   matchWordBoundary,
	CategoryPathological: matchSubstring,
	CategoryTreatment:    matchSubstring,
	CategoryDevice:       matchSubstring,
}

// Extractor tags chunks with the dictionary terms occurring in their text.
// Extraction is pure and idempotent; its only effect is writing the
// "entities" metadata key on each chunk.
type Extractor struct {
	dict     *Dictionary
	patterns map[string]*regexp.Regexp
}

func NewExtractor(dict *Dictionary) *Extractor {
	e := &Extractor{
		dict:     dict,
		patterns: make(map[string]*regexp.Regexp, len(dict.Terms(CategoryAnatomical))),
	}
	// Word-boundary patterns are compiled once per term, up front.
	for _, term := range dict.Terms(CategoryAnatomical) {
		e.patterns[term] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
	}
	return e
}

// Extract returns, per enabled category, the dictionary terms found in the
// text. No matches yields an empty list, never an error.
func (e *Extractor) Extract(text string, opts domain.ExtractOptions) map[string][]string {
	lower := strings.ToLower(text)

	out := map[string][]string{
		string(CategoryAnatomical):   {},
		string(CategoryPathological): {},
		string(CategoryTreatment):    {},
		string(CategoryDevice):       {},
	}
	if opts.Anatomical {
		out[string(CategoryAnatomical)] = e.matchCategory(CategoryAnatomical, lower)
	}
	if opts.Pathological {
		out[string(CategoryPathological)] = e.matchCategory(CategoryPathological, lower)
	}
	if opts.Treatments {
		out[string(CategoryTreatment)] = e.matchCategory(CategoryTreatment, lower)
	}
	out[string(CategoryDevice)] = e.matchCategory(CategoryDevice, lower)
	return out
}

// ExtractFromChunks tags every chunk in place and returns the total number
// of matched terms across chunks and categories.
func (e *Extractor) ExtractFromChunks(chunks []domain.Chunk, opts domain.ExtractOptions) int {
	total := 0
	for i := range chunks {
		entities := e.Extract(chunks[i].Content, opts)
		chunks[i].SetEntities(entities)
		for _, terms := range entities {
			total += len(terms)
		}
	}
	return total
}

func (e *Extractor) matchCategory(category Category, lowerText string) []string {
	strategy := categoryStrategies[category]
	found := make([]string, 0, 4)
	for _, term := range e.dict.Terms(category) {
		switch strategy {
		case matchWordBoundary:
			if e.patterns[term].MatchString(lowerText) {
				found = append(found, term)
			}
		default:
			if strings.Contains(lowerText, strings.ToLower(term)) {
				found = append(found, term)
			}
		}
	}
	sort.Strings(found)
	return found
}
