package reference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/slexa/internal/core"
)

// fakeRows serves one text column per row.
type fakeRows struct {
	values []string
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		r.closed = true
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) != 1 {
		return fmt.Errorf("scan: %d destinations", len(dest))
	}
	p, ok := dest[0].(*string)
	if !ok {
		return fmt.Errorf("scan: unexpected destination %T", dest[0])
	}
	*p = r.values[r.pos-1]
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	return []any{r.values[r.pos-1]}, nil
}

type fakeQuerier struct {
	rows  *fakeRows
	err   error
	query string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.query = sql
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestQueryActiveGrades(t *testing.T) {
	rows := &fakeRows{values: []string{"DX51D", "S235JR"}}
	q := &fakeQuerier{rows: rows}

	got, err := queryActiveGrades(context.Background(), q)
	if err != nil {
		t.Fatalf("queryActiveGrades() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"DX51D", "S235JR"}) {
		t.Errorf("grades = %v", got)
	}
	if q.query != activeGradesSQL {
		t.Errorf("query = %q, want %q", q.query, activeGradesSQL)
	}
	if !rows.closed {
		t.Error("rows not closed")
	}
}

func TestQueryActiveGrades_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    *fakeQuerier
	}{
		{"query fails", &fakeQuerier{err: errors.New("connection refused")}},
		{"rows fail", &fakeQuerier{rows: &fakeRows{values: []string{"DX51D"}, err: errors.New("conn reset")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := queryActiveGrades(context.Background(), tt.q)
			var ext *core.ExternalServiceError
			if !errors.As(err, &ext) {
				t.Fatalf("error = %v, want *core.ExternalServiceError", err)
			}
			if ext.Service != gradeService {
				t.Errorf("Service = %q, want %q", ext.Service, gradeService)
			}
		})
	}
}

func TestStaticGrades(t *testing.T) {
	src := StaticGrades{"DX51D"}
	sess, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Release()

	got, _ := sess.ActiveGrades(context.Background())
	got[0] = "changed"
	if src[0] != "DX51D" {
		t.Error("ActiveGrades() exposes the backing list")
	}
}

func TestLoadGradeList(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{
		"list":    "- DX51D\n- ' S235JR '\n- ''\n",
		"mapping": "grades:\n  - DX51D\n  - S235JR\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadGradeList(path)
			if err != nil {
				t.Fatalf("LoadGradeList() error = %v", err)
			}
			if !reflect.DeepEqual([]string(got), []string{"DX51D", "S235JR"}) {
				t.Errorf("grades = %v", got)
			}
		})
	}

	if _, err := LoadGradeList(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("LoadGradeList() missing file error = nil")
	}
}
