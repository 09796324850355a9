package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// GradeMatchMethod records which step of the resolver found the grade.
type GradeMatchMethod string

const (
	GradeExact   GradeMatchMethod = "exact"
	GradePrefix  GradeMatchMethod = "prefix"
	GradeSegment GradeMatchMethod = "segment"
	GradeNone    GradeMatchMethod = "none"
)

// GradeMatch is the result of resolving one grade designation.
type GradeMatch struct {
	Input   string
	Value   string // canonical reference spelling, or Input when unmatched
	Matched bool
	Method  GradeMatchMethod
}

// GradeResolver matches free-text grades against the active grade list.
type GradeResolver struct {
	refs  []string
	index map[string]string // normalized -> first reference in list order
}

// NewGradeResolver indexes the reference list. Earlier entries win when two
// references normalize to the same key.
func NewGradeResolver(refs []string) *GradeResolver {
	r := &GradeResolver{
		refs:  refs,
		index: make(map[string]string, len(refs)),
	}
	for _, ref := range refs {
		key := NormalizeGrade(ref)
		if key == "" {
			continue
		}
		if _, ok := r.index[key]; !ok {
			r.index[key] = ref
		}
	}
	return r
}

// Len returns the number of reference grades.
func (r *GradeResolver) Len() int { return len(r.refs) }

// NormalizeGrade folds case and removes all whitespace.
func NormalizeGrade(s string) string {
	s = cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Resolve tries, in order: exact normalized equality; the segment before the
// first '+', or before the first '-' when there is no '+'; and recombinations of whitespace-separated parts, where
// each split point i yields the joined parts[:i] and parts[i:]. The first
// fragment that equals a reference wins.
func (r *GradeResolver) Resolve(candidate string) GradeMatch {
	m := GradeMatch{Input: candidate, Value: candidate, Method: GradeNone}

	key := NormalizeGrade(candidate)
	if key == "" {
		return m
	}
	if ref, ok := r.index[key]; ok {
		return r.hit(m, ref, GradeExact)
	}

	if ref, ok := r.lookup(gradePrefix(candidate)); ok {
		return r.hit(m, ref, GradePrefix)
	}

	parts := strings.Fields(candidate)
	for i := 1; i <= len(parts); i++ {
		accumulated := strings.Join(parts[:i], "")
		remaining := strings.Join(parts[i:], "")
		if ref, ok := r.lookup(accumulated); ok {
			return r.hit(m, ref, GradeSegment)
		}
		if remaining == "" {
			continue
		}
		if ref, ok := r.lookup(remaining); ok {
			return r.hit(m, ref, GradeSegment)
		}
	}

	return m
}

// gradePrefix cuts a coating suffix off candidate. A '+' takes precedence,
// so the '-' inside "HC340LA-GI+Z100" stays part of the grade. Without
// either separator the prefix is empty.
func gradePrefix(candidate string) string {
	if i := strings.Index(candidate, "+"); i >= 0 {
		return candidate[:i]
	}
	if i := strings.Index(candidate, "-"); i >= 0 {
		return candidate[:i]
	}
	return ""
}

func (r *GradeResolver) lookup(fragment string) (string, bool) {
	key := NormalizeGrade(fragment)
	if key == "" {
		return "", false
	}
	ref, ok := r.index[key]
	return ref, ok
}

func (r *GradeResolver) hit(m GradeMatch, ref string, method GradeMatchMethod) GradeMatch {
	m.Value = ref
	m.Matched = true
	m.Method = method
	return m
}

// ResolveTable resolves the grade column in place. Unmatched, empty and
// non-text grades are left as they are and reported with their bundle.
func (r *GradeResolver) ResolveTable(t *Table, col string) []Issue {
	var issues []Issue
	for _, row := range t.Rows {
		v := row.Get(col)
		if v.Kind != KindString || strings.TrimSpace(v.S) == "" {
			issues = append(issues, NewIssue(IssueUnresolvedGrade,
				"grade is empty or not text (%s)", v).ForBundle(row.BundleID()).ForColumn(col))
			continue
		}
		m := r.Resolve(v.S)
		if !m.Matched {
			issues = append(issues, NewIssue(IssueUnresolvedGrade,
				"grade %q not found in reference list", v.S).ForBundle(row.BundleID()).ForColumn(col))
			continue
		}
		row.Set(col, Str(m.Value))
	}
	return issues
}
