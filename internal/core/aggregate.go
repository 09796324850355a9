package core

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// MustAgreeColumns are the attributes every row of a bundle has to share.
var MustAgreeColumns = []string{
	ColGrade, ColFinish, ColMinPrice, ColLocation,
	ColThickness, ColWidth, ColMaterialDescription,
}

// ConcatColumns are merged across a bundle's rows instead of checked.
var ConcatColumns = []string{ColDescription, ColBatchNumber}

// IdenticalSuffix names the per-attribute agreement flag column.
const IdenticalSuffix = "_identical"

// Separators used when merging values of one bundle.
const (
	disagreeSeparator = ", "
	concatSeparator   = "\n"
)

// Inconsistency is one bundle attribute whose rows disagree.
type Inconsistency struct {
	Bundle string
	Column string
	Values []string
}

// AggregateResult is the outcome of bundling a validated table.
type AggregateResult struct {
	Consistent      bool
	Table           *Table
	Inconsistencies []Inconsistency
	UnkeyedLines    []int
	// OverflowBundles lists bundles whose weight sum left the float range;
	// their total_weight is missing.
	OverflowBundles []string
}

// Issues converts the result into error log entries: one report listing
// every disagreeing bundle/column pair, a warning for rows that had no
// bundle id, and one warning per bundle whose weight sum overflowed.
func (r AggregateResult) Issues() []Issue {
	var issues []Issue
	if len(r.Inconsistencies) > 0 {
		is := NewIssue(IssueAggregation, "inconsistent bundle attributes in %d bundle/column pair(s)", len(r.Inconsistencies))
		is.Report = &Report{Columns: []string{ColBundleID, "column", "values"}}
		for _, inc := range r.Inconsistencies {
			is.Report.Rows = append(is.Report.Rows, []string{inc.Bundle, inc.Column, strings.Join(inc.Values, disagreeSeparator)})
		}
		issues = append(issues, is)
	}
	if len(r.UnkeyedLines) > 0 {
		lines := make([]string, len(r.UnkeyedLines))
		for i, l := range r.UnkeyedLines {
			lines[i] = strconv.Itoa(l)
		}
		issues = append(issues, NewIssue(IssueUnkeyedRows,
			"%d row(s) without %s skipped (lines %s)", len(lines), ColBundleID, strings.Join(lines, ", ")).ForColumn(ColBundleID))
	}
	for _, id := range r.OverflowBundles {
		issues = append(issues, NewIssue(IssueWeightOverflow,
			"%s of bundle %s is out of range", ColTotalWeight, id).ForBundle(id).ForColumn(ColTotalWeight))
	}
	return issues
}

// AggregateBundles groups rows by bundle_id.
//
// Each bundle yields its summed weight, its row count, one combined value
// per must-agree attribute with an agreement flag, and the newline-joined
// distinct descriptions and batch numbers. Bundles come out ordered by id.
// A missing input column returns a *StructuralError.
func AggregateBundles(t *Table) (AggregateResult, error) {
	required := append([]string{ColBundleID, ColWeight}, MustAgreeColumns...)
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return AggregateResult{}, &StructuralError{Stage: "aggregation", Missing: missing}
	}

	res := AggregateResult{Consistent: true}
	groups := make(map[string][]Row)
	for _, r := range t.Rows {
		id := r.BundleID()
		if id == "" {
			res.UnkeyedLines = append(res.UnkeyedLines, r.Line)
			continue
		}
		groups[id] = append(groups[id], r)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var concat []string
	for _, c := range ConcatColumns {
		if t.HasColumn(c) {
			concat = append(concat, c)
		}
	}

	cols := []string{ColBundleID, ColTotalWeight, ColTotalQuantity}
	cols = append(cols, MustAgreeColumns...)
	cols = append(cols, concat...)
	for _, c := range MustAgreeColumns {
		cols = append(cols, c+IdenticalSuffix)
	}
	out := NewTable(cols...)

	for _, id := range ids {
		rows := groups[id]
		agg := NewRow(rows[0].Line)
		agg.Set(ColBundleID, Str(id))

		total := 0.0
		for _, r := range rows {
			if f, ok := r.Get(ColWeight).Number(); ok {
				total += f
			}
		}
		if math.IsInf(total, 0) || math.IsNaN(total) {
			agg.Set(ColTotalWeight, Missing())
			res.OverflowBundles = append(res.OverflowBundles, id)
		} else {
			agg.Set(ColTotalWeight, Float(total))
		}
		agg.Set(ColTotalQuantity, Int(int64(len(rows))))

		for _, c := range MustAgreeColumns {
			distinct := distinctValues(rows, c)
			identical := len(distinct) <= 1
			agg.Set(c+IdenticalSuffix, Bool(identical))
			switch len(distinct) {
			case 0:
				agg.Set(c, Missing())
			case 1:
				agg.Set(c, distinct[0])
			default:
				texts := valueTexts(distinct)
				agg.Set(c, Str(strings.Join(texts, disagreeSeparator)))
				res.Consistent = false
				res.Inconsistencies = append(res.Inconsistencies, Inconsistency{Bundle: id, Column: c, Values: texts})
			}
		}

		for _, c := range concat {
			distinct := valueTexts(distinctValues(rows, c))
			if len(distinct) == 0 {
				agg.Set(c, Missing())
				continue
			}
			agg.Set(c, Str(strings.Join(distinct, concatSeparator)))
		}

		out.Append(agg)
	}

	res.Table = out
	return res, nil
}

// distinctValues returns the distinct non-missing values of col in
// first-seen order. Text is trimmed before comparison.
func distinctValues(rows []Row, col string) []Value {
	var out []Value
	seen := make(map[string]bool)
	for _, r := range rows {
		v := r.Get(col)
		if v.Kind == KindString {
			v = Str(strings.TrimSpace(v.S))
			if v.S == "" {
				continue
			}
		}
		if v.IsMissing() {
			continue
		}
		key := v.Kind.String() + "\x00" + v.Text()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func valueTexts(vs []Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Text()
	}
	return out
}
