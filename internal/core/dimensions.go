package core

// Measurements below this bound are taken to be entered in meters.
const (
	meterScaleLimit = 0.1
	metersToMM      = 1000
)

// DimensionColumns are the measurement columns checked for unit-scale errors.
var DimensionColumns = []string{ColThickness, ColWidth}

// NormalizeDimension converts a value entered in meters to millimeters.
// Only 0 < v < 0.1 is rescaled; every other value is returned unchanged.
func NormalizeDimension(v float64) float64 {
	if v > 0 && v < meterScaleLimit {
		return v * metersToMM
	}
	return v
}

// NormalizeDimensions parses each measurement cell as a float (accepting a
// comma decimal separator) and fixes meter-scale entries. Unparsable cells
// become missing and are reported once per column.
func NormalizeDimensions(t *Table, cols []string) []Issue {
	var issues []Issue
	for _, col := range cols {
		if !t.HasColumn(col) {
			continue
		}
		failed := 0
		for _, r := range t.Rows {
			v := r.Get(col)
			if v.IsMissing() {
				continue
			}
			f, ok := v.Number()
			if !ok {
				failed++
				r.Set(col, Missing())
				continue
			}
			r.Set(col, Float(NormalizeDimension(f)))
		}
		if failed > 0 {
			issues = append(issues, NewIssue(IssueCoercion,
				"%d value(s) in column %q are not numeric", failed, col).ForColumn(col))
		}
	}
	return issues
}
