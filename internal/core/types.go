package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the representation class of a single cell value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDate
)

var kindNames = [...]string{"missing", "string", "int", "float", "boolean", "date"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// DateLayout is the canonical textual form of date cells.
const DateLayout = "2006-01-02"

// Value is a loosely typed spreadsheet cell. The zero Value is the missing marker.
type Value struct {
	Kind Kind
	S    string
	I    int64
	F    float64
	B    bool
	T    time.Time
}

func Missing() Value { return Value{} }
func Str(s string) Value { return Value{Kind: KindString, S: s} }
func Int(i int64) Value { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }
func Date(t time.Time) Value { return Value{Kind: KindDate, T: t.UTC()} }
func (v Value) IsMissing() bool { return v.Kind == KindMissing }
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Text returns the canonical string form of the value. Whole floats are
// rendered without a fractional part, so 12345.0 becomes "12345".
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.S
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return FormatFloat(v.F)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindDate:
		return v.T.Format(DateLayout)
	default:
		return ""
	}
}

// Number returns the numeric content of the value. Strings are parsed with
// ParseDecimal so "12,5" yields 12.5.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I), true
	case KindFloat:
		return v.F, true
	case KindString:
		return ParseDecimal(v.S)
	default:
		return 0, false
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindMissing:
		return true
	case KindDate:
		return v.T.Equal(o.T)
	default:
		return v.Text() == o.Text()
	}
}

func (v Value) String() string {
	if v.IsMissing() {
		return "<missing>"
	}
	return v.Text()
}

type jsonValue struct {
	Kind string          `json:"t"`
	Raw  json.RawMessage `json:"v"`
}

// MarshalJSON encodes the missing marker as null and every other value as
// a {"t": kind, "v": payload} pair. JSON has no infinities or NaN, so a
// non-finite float is written as missing.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindMissing:
		return []byte("null"), nil
	case KindFloat:
		if math.IsInf(v.F, 0) || math.IsNaN(v.F) {
			return []byte("null"), nil
		}
		payload = v.F
	case KindString:
		payload = v.S
	case KindInt:
		payload = v.I
	case KindBool:
		payload = v.B
	case KindDate:
		payload = v.T.Format(time.RFC3339Nano)
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %d", v.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue{Kind: v.Kind.String(), Raw: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Kind {
	case "string":
		var s string
		if err := json.Unmarshal(jv.Raw, &s); err != nil {
			return err
		}
		*v = Str(s)
	case "int":
		var i int64
		if err := json.Unmarshal(jv.Raw, &i); err != nil {
			return err
		}
		*v = Int(i)
	case "float":
		var f float64
		if err := json.Unmarshal(jv.Raw, &f); err != nil {
			return err
		}
		*v = Float(f)
	case "boolean":
		var b bool
		if err := json.Unmarshal(jv.Raw, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case "date":
		var s string
		if err := json.Unmarshal(jv.Raw, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		*v = Date(t)
	default:
		return fmt.Errorf("unmarshal value: unknown kind %q", jv.Kind)
	}
	return nil
}

// Row is one record. It carries its own source line so issues can be traced
// back to the spreadsheet without positional lookups.
type Row struct {
	Line  int              `json:"line"`
	Cells map[string]Value `json:"cells"`
}

// NewRow creates an empty row for the given source line.
func NewRow(line int) Row {
	return Row{Line: line, Cells: make(map[string]Value)}
}

func (r Row) Get(col string) Value { return r.Cells[col] }
func (r Row) Set(col string, v Value) { r.Cells[col] = v }
func (r Row) BundleID() string { return strings.TrimSpace(r.Cells[ColBundleID].Text()) }

// Table is an ordered set of named columns over a list of rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates a table with the given column order and no rows.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...), Rows: []Row{}}
}

func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column if it is not declared yet. Existing rows read
// the new column as missing.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Append adds a row, filling absent columns with the missing marker.
func (t *Table) Append(r Row) {
	for _, c := range t.Columns {
		if _, ok := r.Cells[c]; !ok {
			r.Cells[c] = Missing()
		}
	}
	t.Rows = append(t.Rows, r)
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Get(name)
	}
	return out
}

// SetColumn writes the same value into every row.
func (t *Table) SetColumn(name string, v Value) {
	t.AddColumn(name)
	for _, r := range t.Rows {
		r.Set(name, v)
	}
}

// AllMissing reports whether every row holds the missing marker for col.
func (t *Table) AllMissing(col string) bool {
	for _, r := range t.Rows {
		if !r.Get(col).IsMissing() {
			return false
		}
	}
	return true
}

// Project rebuilds the table keeping only the source columns listed in
// mapping order and renaming each to its target name.
func (t *Table) Project(mapping []ColumnMapping) {
	cols := make([]string, len(mapping))
	for i, m := range mapping {
		cols[i] = m.Target
	}
	for i, r := range t.Rows {
		nr := NewRow(r.Line)
		for _, m := range mapping {
			nr.Cells[m.Target] = r.Cells[m.Source]
		}
		t.Rows[i] = nr
	}
	t.Columns = cols
}

// ColumnMapping pairs a source column with its name after projection.
type ColumnMapping struct {
	Source string
	Target string
}

// DType is a schema-declared column type.
type DType string

const (
	DTypeString  DType = "string"
	DTypeInt     DType = "int"
	DTypeFloat   DType = "float"
	DTypeBoolean DType = "boolean"
	DTypeDate    DType = "date"
)

// Kind returns the value kind cells of this type are coerced to.
func (d DType) Kind() Kind {
	switch d {
	case DTypeString:
		return KindString
	case DTypeInt:
		return KindInt
	case DTypeFloat:
		return KindFloat
	case DTypeBoolean:
		return KindBool
	case DTypeDate:
		return KindDate
	default:
		return KindMissing
	}
}

// Valid reports whether d is one of the supported types.
func (d DType) Valid() bool { return d.Kind() != KindMissing }

// ColumnSpec declares one expected column.
type ColumnSpec struct {
	Name        string `yaml:"name" json:"name"`
	Mandatory   bool   `yaml:"mandatory" json:"mandatory"`
	DType       DType  `yaml:"dtype" json:"dtype"`
	Translation string `yaml:"translation,omitempty" json:"translation,omitempty"`
}

// Schema is the ordered list of expected columns. It is immutable once loaded.
type Schema struct {
	Columns []ColumnSpec `yaml:"columns" json:"columns"`
}

// Mandatory returns the mandatory column names in declaration order.
func (s Schema) Mandatory() []string {
	var out []string
	for _, c := range s.Columns {
		if c.Mandatory {
			out = append(out, c.Name)
		}
	}
	return out
}

// Names returns every declared column name.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Spec looks up a column by canonical name.
func (s Schema) Spec(name string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Translator turns one text into another language. Implementations never
// fail: on any error they return the input unchanged.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Canonical column names used across the pipeline.
const (
	ColBundleID            = "bundle_id"
	ColBatchNumber         = "batch_number"
	ColGrade               = "grade"
	ColFinish              = "finish"
	ColFinish2             = "finish_2"
	ColMinPrice            = "min_price"
	ColLocation            = "location"
	ColThickness           = "thickness"
	ColWidth               = "width"
	ColWeight              = "weight"
	ColMaterialDescription = "material_description"
	ColDescription         = "description"
	ColTotalWeight         = "total_weight"
	ColTotalQuantity       = "total_quantity"
	ColForm                = "form"
	ColArticleID           = "article_id"
	ColChoice              = "choice"
	ColAccess              = "access"
	ColAuctionType         = "auction_type"
	ColMaterial            = "material"
	ColCategory            = "category"
	ColDescriptionEN       = "description_en"
)
