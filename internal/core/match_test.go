package core

import (
	"reflect"
	"testing"
)

// tableOf builds a table from a header row and string cells. Empty strings
// become the missing marker.
func tableOf(header []string, rows ...[]string) *Table {
	t := NewTable(header...)
	for i, cells := range rows {
		r := NewRow(i + 2)
		for j, c := range cells {
			if c == "" {
				r.Set(header[j], Missing())
				continue
			}
			r.Set(header[j], Str(c))
		}
		t.Append(r)
	}
	return t
}

var stockSchema = Schema{Columns: []ColumnSpec{
	{Name: "bundle_id", Mandatory: true, DType: DTypeString},
	{Name: "grade", Mandatory: true, DType: DTypeString},
	{Name: "weight", Mandatory: true, DType: DTypeFloat},
	{Name: "remarks", DType: DTypeString},
}}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"grade", "grade", 100},
		{"bundle id", "bundle id", 100},
		{"weight", "weigth", 67},
		{"grade", "xxxxx", 0},
		{"", "", 0},
	}

	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestColumnSimilarity_ProcessesHeaders(t *testing.T) {
	if got := ColumnSimilarity("Bundle-ID", "bundle_id"); got != 100 {
		t.Errorf("ColumnSimilarity(Bundle-ID, bundle_id) = %d, want 100", got)
	}
	if got := ColumnSimilarity("  GRADE ", "grade"); got != 100 {
		t.Errorf("ColumnSimilarity(GRADE, grade) = %d, want 100", got)
	}
}

func TestColumnSimilarity_BundleHeaders(t *testing.T) {
	tests := []struct {
		header string
		want   int
		match  bool
	}{
		{"Bundle ID", 100, true},
		{"BundleID", 89, true},
		{"Bundle-Nr", 78, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := ColumnSimilarity(tt.header, ColBundleID)
			if got != tt.want {
				t.Errorf("ColumnSimilarity(%q, %q) = %d, want %d", tt.header, ColBundleID, got, tt.want)
			}
			if match := got >= DefaultColumnMatchThreshold; match != tt.match {
				t.Errorf("above threshold = %v, want %v", match, tt.match)
			}
		})
	}
}

func TestMatchSchema_RenamesAndRestricts(t *testing.T) {
	tbl := tableOf(
		[]string{"Bundle ID", "Grade", "Weights", "Unrelated"},
		[]string{"B1", "DX51D", "1200", "x"},
	)

	res := MatchSchema(tbl, stockSchema, DefaultColumnMatchThreshold)

	if !res.Matched {
		t.Fatalf("Matched = false, missing=%v empty=%v", res.Missing, res.Empty)
	}
	if got, want := tbl.Columns, []string{"bundle_id", "grade", "weight"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Columns = %v, want %v", got, want)
	}
	if res.Renamed["Weights"] != "weight" {
		t.Errorf("Renamed[Weights] = %q, want weight", res.Renamed["Weights"])
	}
	if res.Scores["weight"] < DefaultColumnMatchThreshold {
		t.Errorf("Scores[weight] = %d, want >= %d", res.Scores["weight"], DefaultColumnMatchThreshold)
	}
	if got := tbl.Rows[0].Get("grade").Text(); got != "DX51D" {
		t.Errorf("grade = %q, want DX51D", got)
	}
	if err := res.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestMatchSchema_BelowThresholdReportedMissing(t *testing.T) {
	tbl := tableOf(
		[]string{"Bundle ID", "Quality", "Weight"},
		[]string{"B1", "DX51D", "1200"},
	)

	res := MatchSchema(tbl, stockSchema, DefaultColumnMatchThreshold)

	if res.Matched {
		t.Fatal("Matched = true, want false")
	}
	if !reflect.DeepEqual(res.Missing, []string{"grade"}) {
		t.Errorf("Missing = %v, want [grade]", res.Missing)
	}
	if len(tbl.Columns) != 3 || tbl.Columns[1] != "Quality" {
		t.Errorf("rejected table was modified: %v", tbl.Columns)
	}
	var mismatch *SchemaMismatchError
	if err := res.Err(); err == nil {
		t.Error("Err() = nil, want SchemaMismatchError")
	} else if m, ok := err.(*SchemaMismatchError); !ok {
		t.Errorf("Err() type = %T, want %T", err, mismatch)
	} else if !reflect.DeepEqual(m.Missing, []string{"grade"}) {
		t.Errorf("SchemaMismatchError.Missing = %v", m.Missing)
	}
}

func TestMatchSchema_EmptyRequiredColumn(t *testing.T) {
	tbl := tableOf(
		[]string{"bundle_id", "grade", "weight"},
		[]string{"B1", "", "1200"},
		[]string{"B2", "", "900"},
	)

	res := MatchSchema(tbl, stockSchema, DefaultColumnMatchThreshold)

	if res.Matched {
		t.Fatal("Matched = true, want false for all-empty grade column")
	}
	if len(res.Missing) != 0 {
		t.Errorf("Missing = %v, want none", res.Missing)
	}
	if !reflect.DeepEqual(res.Empty, []string{"grade"}) {
		t.Errorf("Empty = %v, want [grade]", res.Empty)
	}
}

func TestMatchSchema_FirstDeclaredColumnWins(t *testing.T) {
	schema := Schema{Columns: []ColumnSpec{
		{Name: "width", Mandatory: true, DType: DTypeFloat},
		{Name: "widths", Mandatory: true, DType: DTypeFloat},
	}}
	tbl := tableOf([]string{"Width"}, []string{"1250"})

	res := MatchSchema(tbl, schema, DefaultColumnMatchThreshold)

	if res.Renamed["Width"] != "width" {
		t.Errorf("Renamed[Width] = %q, want width", res.Renamed["Width"])
	}
	if !reflect.DeepEqual(res.Missing, []string{"widths"}) {
		t.Errorf("Missing = %v, want [widths]", res.Missing)
	}
}

func TestMatchSchema_OptionalColumnsDoNotAffectVerdict(t *testing.T) {
	tbl := tableOf(
		[]string{"bundle_id", "grade", "weight", "Remarks"},
		[]string{"B1", "S235", "10", "ok"},
	)
	res := MatchSchema(tbl, stockSchema, DefaultColumnMatchThreshold)
	if !res.Matched || !tbl.HasColumn("remarks") {
		t.Fatalf("Matched = %v columns = %v, want optional remarks kept", res.Matched, tbl.Columns)
	}

	tbl = tableOf([]string{"bundle_id", "grade", "weight"}, []string{"B1", "S235", "10"})
	if res := MatchSchema(tbl, stockSchema, DefaultColumnMatchThreshold); !res.Matched {
		t.Errorf("Matched = false without optional column, want true")
	}
}
