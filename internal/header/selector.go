package header

const (
	// MinHeaderScore is the fewest distinct categories a header must match for structured extraction.
	MinHeaderScore = 2
	// DefaultMaxScanRows bounds how far down a sheet the header search looks.
	DefaultMaxScanRows = 10
)

// Selection is the chosen header row of a sheet.
type Selection struct {
	Index   int
	Mapping Mapping
	Score   int
}

// Recognized reports whether the selection clears MinHeaderScore.
func (s Selection) Recognized() bool {
	return s.Score >= MinHeaderScore
}

// SelectHeaderRow scores the first maxScanRows rows and returns the best one.
// Ties go to the earliest row. An empty sheet yields Index -1 and score 0.
func SelectHeaderRow(rows [][]string, vocab *Vocabulary, maxScanRows int) Selection {
	if maxScanRows <= 0 {
		maxScanRows = DefaultMaxScanRows
	}
	limit := min(len(rows), maxScanRows)

	best := Selection{Index: -1, Mapping: Mapping{}}
	for i := 0; i < limit; i++ {
		score, mapping := ScoreRow(rows[i], vocab)
		if i == 0 || score > best.Score {
			best = Selection{Index: i, Mapping: mapping, Score: score}
		}
	}
	return best
}
