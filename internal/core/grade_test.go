package core

import "testing"

var activeGrades = []string{"DX51D", "S235JR", "S355J2+N", "HX340LAD"}

func TestGradeResolver_Resolve(t *testing.T) {
	r := NewGradeResolver(activeGrades)

	tests := []struct {
		input   string
		want    string
		matched bool
		method  GradeMatchMethod
	}{
		{"DX51D", "DX51D", true, GradeExact},
		{"dx51d", "DX51D", true, GradeExact},
		{"DX 51 D", "DX51D", true, GradeExact},
		{"S355J2+N", "S355J2+N", true, GradeExact},
		{"DX51D+Z", "DX51D", true, GradePrefix},
		{"S235JR-AR", "S235JR", true, GradePrefix},
		{"DX51D Z275", "DX51D", true, GradeSegment},
		{"Z275 HX340LAD", "HX340LAD", true, GradeSegment},
		{"XYZ999", "XYZ999", false, GradeNone},
		{"   ", "   ", false, GradeNone},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := r.Resolve(tt.input)
			if m.Value != tt.want || m.Matched != tt.matched || m.Method != tt.method {
				t.Errorf("Resolve(%q) = {%q %v %s}, want {%q %v %s}",
					tt.input, m.Value, m.Matched, m.Method, tt.want, tt.matched, tt.method)
			}
		})
	}
}

func TestGradeResolver_PlusSplitsBeforeMinus(t *testing.T) {
	r := NewGradeResolver([]string{"HC340LA-GI", "HC340LA"})

	tests := []struct {
		input string
		want  string
	}{
		{"HC340LA-GI+Z100", "HC340LA-GI"},
		{"HC340LA-ZE", "HC340LA"},
		{"HC340LA+Z", "HC340LA"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := r.Resolve(tt.input)
			if m.Value != tt.want || m.Method != GradePrefix {
				t.Errorf("Resolve(%q) = {%q %s}, want {%q prefix}", tt.input, m.Value, m.Method, tt.want)
			}
		})
	}
}

func TestGradeResolver_FirstReferenceWins(t *testing.T) {
	r := NewGradeResolver([]string{"DX51D", "dx51d"})
	if m := r.Resolve("DX51D"); m.Value != "DX51D" {
		t.Errorf("Resolve = %q, want first reference spelling", m.Value)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestGradeResolver_ResolveTable(t *testing.T) {
	r := NewGradeResolver(activeGrades)
	tbl := tableOf([]string{ColBundleID, ColGrade},
		[]string{"B1", "dx51d+z"},
		[]string{"B2", "XYZ999"},
		[]string{"B3", ""},
	)
	tbl.Append(Row{Line: 9, Cells: map[string]Value{ColBundleID: Str("B4"), ColGrade: Float(235)}})

	issues := r.ResolveTable(tbl, ColGrade)

	if got := tbl.Rows[0].Get(ColGrade).Text(); got != "DX51D" {
		t.Errorf("B1 grade = %q, want DX51D", got)
	}
	if got := tbl.Rows[1].Get(ColGrade).Text(); got != "XYZ999" {
		t.Errorf("unmatched grade changed to %q", got)
	}
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3: %v", len(issues), issues)
	}
	for i, bundle := range []string{"B2", "B3", "B4"} {
		if issues[i].Bundle != bundle || issues[i].Code != "GRD001" || issues[i].Fatal() {
			t.Errorf("issue %d = %+v, want GRD001 warning for %s", i, issues[i], bundle)
		}
	}
}
