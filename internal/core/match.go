package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultColumnMatchThreshold is the minimum similarity (0-100) for a header
// to be accepted as a schema column.
const DefaultColumnMatchThreshold = 80

// MatchResult is the outcome of reconciling a table's headers with a schema.
type MatchResult struct {
	Matched bool
	Renamed map[string]string // source header -> canonical name
	Scores  map[string]int    // canonical name -> similarity of the accepted header
	Missing []string
	Empty   []string
}

// Err returns the rejection as a *SchemaMismatchError, or nil on success.
func (r MatchResult) Err() error {
	if r.Matched {
		return nil
	}
	return &SchemaMismatchError{Missing: r.Missing, Empty: r.Empty}
}

// MatchSchema reconciles the table's headers with the schema.
//
// Mandatory columns are processed in declaration order and each claims the
// best-scoring header not claimed before it, so when two schema columns
// compete for one header the first-declared one wins. Optional columns are
// matched afterwards and never affect the verdict. On success the table is
// restricted to the matched columns, renamed and in schema order.
func MatchSchema(t *Table, schema Schema, threshold int) MatchResult {
	res := MatchResult{
		Renamed: make(map[string]string),
		Scores:  make(map[string]int),
	}

	processed := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		processed[i] = processHeader(c)
	}

	claimed := make([]bool, len(t.Columns))
	assigned := make(map[string]int)

	assign := func(spec ColumnSpec) bool {
		idx, score := bestHeader(processHeader(spec.Name), processed, claimed)
		if idx < 0 || score < threshold {
			return false
		}
		claimed[idx] = true
		assigned[spec.Name] = idx
		res.Scores[spec.Name] = score
		res.Renamed[t.Columns[idx]] = spec.Name
		return true
	}

	for _, spec := range schema.Columns {
		if spec.Mandatory && !assign(spec) {
			res.Missing = append(res.Missing, spec.Name)
		}
	}
	for _, spec := range schema.Columns {
		if !spec.Mandatory {
			assign(spec)
		}
	}

	for _, spec := range schema.Columns {
		idx, ok := assigned[spec.Name]
		if spec.Mandatory && ok && t.AllMissing(t.Columns[idx]) {
			res.Empty = append(res.Empty, spec.Name)
		}
	}

	res.Matched = len(res.Missing) == 0 && len(res.Empty) == 0
	if !res.Matched {
		return res
	}

	var mapping []ColumnMapping
	for _, spec := range schema.Columns {
		if idx, ok := assigned[spec.Name]; ok {
			mapping = append(mapping, ColumnMapping{Source: t.Columns[idx], Target: spec.Name})
		}
	}
	t.Project(mapping)
	return res
}

// bestHeader returns the index and score of the unclaimed header most similar
// to query. Ties go to the leftmost header.
func bestHeader(query string, headers []string, claimed []bool) (int, int) {
	best, bestScore := -1, -1
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		if s := Similarity(query, h); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

// Similarity returns an edit-distance ratio in [0, 100] for two processed
// strings: 100 * (1 - distance / longer length), rounded.
func Similarity(a, b string) int {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longer := max(la, lb)
	if longer == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longer))))
}

// ColumnSimilarity scores two raw header texts after header processing.
func ColumnSimilarity(a, b string) int {
	return Similarity(processHeader(a), processHeader(b))
}

// processHeader folds case and compatibility forms and reduces every run of
// punctuation or whitespace to a single space.
func processHeader(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
