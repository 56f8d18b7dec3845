package header

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/tabular"
)

// MinReverseRunes is the shortest cell text that may match by being contained in a candidate.
// Below it, single letters such as "A" would match half the vocabulary.
const MinReverseRunes = 2

// Mapping maps a category to the column index holding it.
type Mapping map[constants.Category]int

// Column returns the column mapped to cat.
func (m Mapping) Column(cat constants.Category) (int, bool) {
	idx, ok := m[cat]
	return idx, ok
}

// Matches reports whether cellText contains a candidate or is contained in one.
func Matches(cellText string, candidates []string) bool {
	cell := tabular.NormalizeCell(cellText)
	if cell == "" {
		return false
	}
	reverse := utf8.RuneCountInString(cell) >= MinReverseRunes
	for _, c := range candidates {
		cand := tabular.NormalizeCell(c)
		if cand == "" {
			continue
		}
		if strings.Contains(cell, cand) {
			return true
		}
		if reverse && strings.Contains(cand, cell) {
			return true
		}
	}
	return false
}

// ScoreRow counts the categories matched by row. For each category the leftmost matching cell wins.
func ScoreRow(row []string, vocab *Vocabulary) (int, Mapping) {
	mapping := Mapping{}
	for _, cat := range vocab.Categories() {
		candidates := vocab.Candidates(cat)
		if len(candidates) == 0 {
			continue
		}
		for idx, cell := range row {
			if Matches(cell, candidates) {
				mapping[cat] = idx
				break
			}
		}
	}
	return len(mapping), mapping
}
