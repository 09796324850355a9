package loader

import "github.com/JonMunkholm/slexa/internal/core"

// MaxHeaderSearchRows is the maximum number of rows to scan for the header.
var MaxHeaderSearchRows = 20

// Header row heuristics: the share of a row's cells that must be filled, and
// the share that must be non-numeric text.
const (
	headerDensity       = 0.7
	headerStringDensity = 0.5
)

// FindHeaderRow returns the index of the header row, or -1 when every row is
// empty. Spreadsheets often carry a title block above the table, so the
// first rows are scored and the densest qualifying one wins; earlier rows
// win ties. Without a qualifying row the first non-empty row is used.
func FindHeaderRow(records [][]string) int {
	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}

	limit := min(len(records), MaxHeaderSearchRows)
	best, bestFilled := -1, -1
	for i := 0; i < limit; i++ {
		filled, text := 0, 0
		for _, cell := range records[i] {
			s := core.CleanCell(cell)
			if s == "" {
				continue
			}
			filled++
			if !core.IsStrictNumber(s) {
				text++
			}
		}
		if float64(filled) > float64(width)*headerDensity &&
			float64(text) > float64(width)*headerStringDensity &&
			filled > bestFilled {
			best, bestFilled = i, filled
		}
	}
	if best >= 0 {
		return best
	}

	for i, rec := range records {
		if !isEmptyRow(rec) {
			return i
		}
	}
	return -1
}
