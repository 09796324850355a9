package core

import (
	"math"
	"strings"
)

// ColumnKind returns the representation class shared by every non-missing
// value of col. mixed is true when values disagree; an all-missing column
// reports KindMissing.
func ColumnKind(t *Table, col string) (kind Kind, mixed bool) {
	kind = KindMissing
	for _, r := range t.Rows {
		v := r.Get(col)
		if v.IsMissing() {
			continue
		}
		if kind == KindMissing {
			kind = v.Kind
			continue
		}
		if v.Kind != kind {
			return KindString, true
		}
	}
	return kind, false
}

// CoerceTypes converts every mandatory column whose representation differs
// from its declared type. Values that cannot be converted become missing;
// each affected column yields one CoercionWarning.
func CoerceTypes(t *Table, schema Schema) []Issue {
	var issues []Issue
	for _, spec := range schema.Columns {
		if !spec.Mandatory || !t.HasColumn(spec.Name) {
			continue
		}
		kind, mixed := ColumnKind(t, spec.Name)
		if kind == KindMissing || (!mixed && kind == spec.DType.Kind()) {
			continue
		}

		failed := 0
		var samples []string
		for _, r := range t.Rows {
			v := r.Get(spec.Name)
			if v.IsMissing() {
				continue
			}
			nv, ok := CoerceValue(v, spec.DType)
			if !ok {
				failed++
				if len(samples) < 3 {
					samples = append(samples, v.Text())
				}
			}
			r.Set(spec.Name, nv)
		}

		if failed > 0 {
			issues = append(issues, NewIssue(IssueCoercion,
				"%d value(s) in column %q could not be converted to %s (e.g. %s)",
				failed, spec.Name, spec.DType, strings.Join(samples, ", ")).ForColumn(spec.Name))
		}
	}
	return issues
}

// CoerceValue converts one value to the declared type. The second return is
// false when the value had to be replaced by the missing marker.
func CoerceValue(v Value, d DType) (Value, bool) {
	if v.IsMissing() || v.Kind == d.Kind() {
		return v, true
	}

	switch d {
	case DTypeString:
		return Str(v.Text()), true

	case DTypeInt:
		f, ok := v.Number()
		if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
			return Missing(), false
		}
		return Int(int64(f)), true

	case DTypeFloat:
		f, ok := v.Number()
		if !ok {
			return Missing(), false
		}
		return Float(f), true

	case DTypeBoolean:
		return coerceBool(v), true

	case DTypeDate:
		switch v.Kind {
		case KindString:
			if t, ok := ParseDate(v.S); ok {
				return Date(t), true
			}
			if f, ok := ParseDecimal(v.S); ok {
				if t, ok := ExcelSerialDate(f); ok {
					return Date(t), true
				}
			}
		case KindInt, KindFloat:
			f, _ := v.Number()
			if t, ok := ExcelSerialDate(f); ok {
				return Date(t), true
			}
		}
		return Missing(), false
	}

	return Missing(), false
}

// coerceBool maps recognized spellings first and falls back to truthiness:
// non-empty text and non-zero numbers are true.
func coerceBool(v Value) Value {
	switch v.Kind {
	case KindString:
		if b, ok := ParseBool(v.S); ok {
			return Bool(b)
		}
		return Bool(strings.TrimSpace(v.S) != "")
	case KindInt, KindFloat:
		f, _ := v.Number()
		return Bool(f != 0)
	default:
		return Bool(true)
	}
}
