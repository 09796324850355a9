package core

import "math"

// DefaultRowMissingThreshold is the fraction of required columns a row may
// leave empty, as passed by the transform stage.
const DefaultRowMissingThreshold = 0.9

// PruneResult reports what PruneRows removed.
type PruneResult struct {
	MinNonMissing int
	Dropped       int
	DroppedLines  []int
}

// MinNonMissing computes floor(required * (1 - threshold)).
func MinNonMissing(required int, threshold float64) int {
	return int(math.Floor(float64(required) * (1 - threshold)))
}

// PruneRows drops rows whose count of non-missing required values is
// <= MinNonMissing. With the default threshold and a short required list the
// bound is 0, so only rows with no required value at all are removed.
//
// TODO: confirm the policy with the data owners. The transform stage passes
// 0.9 meaning "drop rows missing 90% of required fields", but the bound
// rounds down to 0 for up to ten required columns.
func PruneRows(t *Table, required []string, threshold float64) PruneResult {
	res := PruneResult{MinNonMissing: MinNonMissing(len(required), threshold)}

	kept := t.Rows[:0]
	for _, r := range t.Rows {
		present := 0
		for _, col := range required {
			if !r.Get(col).IsMissing() {
				present++
			}
		}
		if present <= res.MinNonMissing {
			res.Dropped++
			res.DroppedLines = append(res.DroppedLines, r.Line)
			continue
		}
		kept = append(kept, r)
	}
	t.Rows = kept
	return res
}

// StandardizeMissing turns textual "no value" tokens (nan, N/A, blank, ...)
// into the missing marker.
func StandardizeMissing(t *Table) {
	for _, r := range t.Rows {
		for col, v := range r.Cells {
			if v.Kind != KindString {
				continue
			}
			if IsMissingToken(v.S) {
				r.Cells[col] = Missing()
			}
		}
	}
}
