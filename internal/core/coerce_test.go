package core

import (
	"testing"
	"time"
)

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name   string
		in     Value
		dtype  DType
		want   Value
		wantOK bool
	}{
		{"text to float", Str("1.250,5"), DTypeFloat, Float(1250.5), true},
		{"text to float invalid", Str("approx 12"), DTypeFloat, Missing(), false},
		{"float to string drops .0", Float(12345), DTypeString, Str("12345"), true},
		{"float to string keeps fraction", Float(0.75), DTypeString, Str("0.75"), true},
		{"whole float to int", Float(7), DTypeInt, Int(7), true},
		{"fractional float to int", Float(7.5), DTypeInt, Missing(), false},
		{"text to int", Str("42"), DTypeInt, Int(42), true},
		{"text to bool", Str("ja"), DTypeBoolean, Bool(true), true},
		{"zero to bool", Float(0), DTypeBoolean, Bool(false), true},
		{"unknown text to bool is truthy", Str("maybe"), DTypeBoolean, Bool(true), true},
		{"missing stays missing", Missing(), DTypeBoolean, Missing(), true},
		{"text to date", Str("15.03.2024"), DTypeDate, Date(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)), true},
		{"serial to date", Float(45366), DTypeDate, Date(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)), true},
		{"garbage to date", Str("soon"), DTypeDate, Missing(), false},
		{"same kind untouched", Str("x"), DTypeString, Str("x"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceValue(tt.in, tt.dtype)
			if ok != tt.wantOK {
				t.Errorf("CoerceValue(%v, %s) ok = %v, want %v", tt.in, tt.dtype, ok, tt.wantOK)
			}
			if !got.Equal(tt.want) {
				t.Errorf("CoerceValue(%v, %s) = %#v, want %#v", tt.in, tt.dtype, got, tt.want)
			}
		})
	}
}

func TestColumnKind(t *testing.T) {
	tbl := NewTable("a", "b", "c")
	for i, vs := range [][]Value{
		{Float(1), Str("x"), Missing()},
		{Float(2), Float(3), Missing()},
	} {
		r := NewRow(i + 2)
		r.Set("a", vs[0])
		r.Set("b", vs[1])
		r.Set("c", vs[2])
		tbl.Append(r)
	}

	if k, mixed := ColumnKind(tbl, "a"); k != KindFloat || mixed {
		t.Errorf("ColumnKind(a) = %v, %v, want float, false", k, mixed)
	}
	if _, mixed := ColumnKind(tbl, "b"); !mixed {
		t.Error("ColumnKind(b) mixed = false, want true")
	}
	if k, _ := ColumnKind(tbl, "c"); k != KindMissing {
		t.Errorf("ColumnKind(c) = %v, want missing", k)
	}
}

func TestCoerceTypes(t *testing.T) {
	schema := Schema{Columns: []ColumnSpec{
		{Name: "bundle_id", Mandatory: true, DType: DTypeString},
		{Name: "weight", Mandatory: true, DType: DTypeFloat},
		{Name: "note", DType: DTypeFloat},
	}}
	tbl := NewTable("bundle_id", "weight", "note")
	rows := []struct {
		id     Value
		weight string
	}{
		{Float(1001), "1200"},
		{Str("B2"), "12,5"},
		{Str("B3"), "abc"},
		{Str("B4"), "n/a?"},
	}
	for i, in := range rows {
		r := NewRow(i + 2)
		r.Set("bundle_id", in.id)
		r.Set("weight", Str(in.weight))
		r.Set("note", Str("not coerced"))
		tbl.Append(r)
	}

	issues := CoerceTypes(tbl, schema)

	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %v", len(issues), issues)
	}
	is := issues[0]
	if is.Code != "COE001" || is.Column != "weight" || is.Severity != SeverityWarning {
		t.Errorf("issue = %+v, want COE001 warning on weight", is)
	}

	wantWeights := []Value{Float(1200), Float(12.5), Missing(), Missing()}
	for i, want := range wantWeights {
		if got := tbl.Rows[i].Get("weight"); !got.Equal(want) {
			t.Errorf("row %d weight = %#v, want %#v", i, got, want)
		}
	}
	if got := tbl.Rows[0].Get("bundle_id"); !got.Equal(Str("1001")) {
		t.Errorf("bundle_id = %#v, want string 1001", got)
	}
	if got := tbl.Rows[0].Get("note"); got.Kind != KindString {
		t.Errorf("optional column was coerced to %s", got.Kind)
	}
}
