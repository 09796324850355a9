package core

import (
	"reflect"
	"testing"
)

func TestMinNonMissing(t *testing.T) {
	tests := []struct {
		required  int
		threshold float64
		want      int
	}{
		{4, 0.9, 0},
		{10, 0.9, 0},
		{20, 0.9, 1},
		{4, 0.5, 2},
		{4, 0, 4},
	}

	for _, tt := range tests {
		if got := MinNonMissing(tt.required, tt.threshold); got != tt.want {
			t.Errorf("MinNonMissing(%d, %v) = %d, want %d", tt.required, tt.threshold, got, tt.want)
		}
	}
}

func TestPruneRows_DefaultThresholdDropsOnlyEmptyRows(t *testing.T) {
	required := []string{"bundle_id", "grade", "weight", "width"}
	tbl := tableOf(
		append(required, "remarks"),
		[]string{"B1", "DX51D", "1200", "1250", ""},
		[]string{"", "", "", "", "only a remark"},
		[]string{"B3", "", "", "", ""},
		[]string{"", "", "", "", ""},
	)

	res := PruneRows(tbl, required, DefaultRowMissingThreshold)

	if res.MinNonMissing != 0 {
		t.Errorf("MinNonMissing = %d, want 0", res.MinNonMissing)
	}
	if res.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", res.Dropped)
	}
	if !reflect.DeepEqual(res.DroppedLines, []int{3, 5}) {
		t.Errorf("DroppedLines = %v, want [3 5]", res.DroppedLines)
	}
	if tbl.Len() != 2 || tbl.Rows[1].BundleID() != "B3" {
		t.Errorf("kept rows = %+v", tbl.Rows)
	}
}

func TestPruneRows_StricterThreshold(t *testing.T) {
	required := []string{"a", "b", "c", "d"}
	tbl := tableOf(required,
		[]string{"1", "2", "3", ""},
		[]string{"1", "2", "", ""},
	)

	res := PruneRows(tbl, required, 0.5)

	if res.Dropped != 1 || tbl.Len() != 1 || tbl.Rows[0].Line != 2 {
		t.Errorf("Dropped = %d, rows = %+v, want only line 2 kept", res.Dropped, tbl.Rows)
	}
}

func TestStandardizeMissing(t *testing.T) {
	tbl := tableOf([]string{"a", "b"},
		[]string{"nan", "N/A"},
		[]string{"  ", "DX51D"},
	)
	tbl.Rows[1].Set("b", Float(0))

	StandardizeMissing(tbl)

	if !tbl.Rows[0].Get("a").IsMissing() || !tbl.Rows[0].Get("b").IsMissing() {
		t.Errorf("row 0 = %+v, want all missing", tbl.Rows[0].Cells)
	}
	if !tbl.Rows[1].Get("a").IsMissing() {
		t.Error("blank cell not standardized")
	}
	if got := tbl.Rows[1].Get("b"); !got.Equal(Float(0)) {
		t.Errorf("numeric zero changed to %#v", got)
	}
}
