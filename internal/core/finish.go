package core

import "strings"

// FinishLabel is the canonical naming of one finish code.
type FinishLabel struct {
	Primary   string
	Secondary string
}

// FinishResolver maps finish codes to labels by exact key.
type FinishResolver struct {
	labels map[string]FinishLabel
}

// NewFinishResolver wraps a code -> label table. Keys are trimmed.
func NewFinishResolver(labels map[string]FinishLabel) *FinishResolver {
	m := make(map[string]FinishLabel, len(labels))
	for k, v := range labels {
		m[strings.TrimSpace(k)] = v
	}
	return &FinishResolver{labels: m}
}

// FinishKey returns the lookup key for a cell: its canonical text, so the
// float 7.0 and the string "7" both look up "7".
func FinishKey(v Value) string {
	return strings.TrimSpace(v.Text())
}

// Lookup finds the label for a finish cell.
func (r *FinishResolver) Lookup(v Value) (FinishLabel, bool) {
	if v.IsMissing() {
		return FinishLabel{}, false
	}
	l, ok := r.labels[FinishKey(v)]
	return l, ok
}

// Len returns the number of finish codes known.
func (r *FinishResolver) Len() int { return len(r.labels) }

// ResolveTable replaces each finish code with its primary label and fills
// the secondary label column. Unknown codes become missing.
func (r *FinishResolver) ResolveTable(t *Table) []Issue {
	var issues []Issue
	t.AddColumn(ColFinish2)
	for _, row := range t.Rows {
		v := row.Get(ColFinish)
		label, ok := r.Lookup(v)
		if !ok {
			issues = append(issues, NewIssue(IssueUnresolvedFinish,
				"finish %q not found in finish table", FinishKey(v)).ForBundle(row.BundleID()).ForColumn(ColFinish))
			row.Set(ColFinish, Missing())
			row.Set(ColFinish2, Missing())
			continue
		}
		row.Set(ColFinish, Str(label.Primary))
		if label.Secondary != "" {
			row.Set(ColFinish2, Str(label.Secondary))
		} else {
			row.Set(ColFinish2, Missing())
		}
	}
	return issues
}
