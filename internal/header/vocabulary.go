package header

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary is the category → candidate label table used by the matcher.
// Candidates are stored normalized; categories always iterate in the fixed scoring order.
type Vocabulary struct {
	candidates map[constants.Category][]string
}

type vocabularyFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// DefaultVocabulary returns the built-in English/Chinese table.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return v
}

// LoadVocabulary reads a YAML table from path; an empty path yields the default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary decodes a YAML table. Unknown category keys are rejected.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("parse vocabulary: no categories")
	}

	v := &Vocabulary{candidates: make(map[constants.Category][]string, len(file.Categories))}
	for key, labels := range file.Categories {
		cat, ok := constants.Canonicalize(key)
		if !ok {
			return nil, fmt.Errorf("parse vocabulary: unknown category %q", key)
		}
		for _, label := range labels {
			if l := strings.ToLower(strings.TrimSpace(label)); l != "" {
				v.candidates[cat] = append(v.candidates[cat], l)
			}
		}
	}
	return v, nil
}

// NewVocabulary builds a table from an in-memory map.
func NewVocabulary(table map[constants.Category][]string) *Vocabulary {
	v := &Vocabulary{candidates: make(map[constants.Category][]string, len(table))}
	for cat, labels := range table {
		for _, label := range labels {
			if l := strings.ToLower(strings.TrimSpace(label)); l != "" {
				v.candidates[cat] = append(v.candidates[cat], l)
			}
		}
	}
	return v
}

// Candidates returns the labels for cat.
func (v *Vocabulary) Candidates(cat constants.Category) []string {
	return v.candidates[cat]
}

// Categories returns the categories in scoring order.
func (v *Vocabulary) Categories() []constants.Category {
	return constants.AllCategories()
}
