package tabular

import "strings"

// Grid is a sheet prepared for header matching.
// Raw keeps the trimmed original text for storage; Match holds the lower-cased copy used for matching.
type Grid struct {
	Raw   [][]string
	Match [][]string
}

// Normalize trims every cell and derives the lower-cased matching view.
// Row lengths are preserved, so ragged sheets stay ragged.
func Normalize(rows [][]string) Grid {
	g := Grid{
		Raw:   make([][]string, len(rows)),
		Match: make([][]string, len(rows)),
	}
	for i, row := range rows {
		raw := make([]string, len(row))
		match := make([]string, len(row))
		for j, cell := range row {
			raw[j] = strings.TrimSpace(cell)
			match[j] = NormalizeCell(cell)
		}
		g.Raw[i] = raw
		g.Match[i] = match
	}
	return g
}

// NormalizeCell lower-cases and trims a single cell.
func NormalizeCell(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// IsEmptyRow reports whether every cell in row is blank.
func IsEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Cell returns row[idx], or "" when idx is outside the row.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
