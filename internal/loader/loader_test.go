package loader

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/slexa/internal/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
	} else {
		sheet = "Sheet1"
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "stock.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestLoad_CSV(t *testing.T) {
	content := "\xEF\xBB\xBFBestandsliste Lager 3;;;\n" +
		"Bund;Güte;Gewicht;Gewicht\n" +
		"B1;DX51D;1250.5;nan\n" +
		";;;\n" +
		"B2;S235;1.250,5;7\n"
	path := writeFile(t, "stock.csv", content)

	tbl, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantCols := []string{"Bund", "Güte", "Gewicht", "Gewicht.1"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}

	first, second := tbl.Rows[0], tbl.Rows[1]
	if first.Line != 3 || second.Line != 5 {
		t.Errorf("lines = %d, %d, want 3, 5", first.Line, second.Line)
	}
	if got := first.Get("Gewicht"); !got.Equal(core.Float(1250.5)) {
		t.Errorf("Gewicht = %#v, want float 1250.5", got)
	}
	if !first.Get("Gewicht.1").IsMissing() {
		t.Errorf("nan cell = %#v, want missing", first.Get("Gewicht.1"))
	}
	if got := second.Get("Gewicht"); !got.Equal(core.Str("1.250,5")) {
		t.Errorf("localized number = %#v, want string kept for the coercer", got)
	}
}

func TestLoad_CommaCSVWithLatin1(t *testing.T) {
	path := writeFile(t, "stock.csv", "bundle_id,grade,desc\nB1,DX51D,Stahl gr\xfcn\n")

	tbl, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := tbl.Rows[0].Get("desc").Text(); got != "Stahl gr�n" {
		t.Errorf("desc = %q, want replacement character", got)
	}
}

func TestLoad_Workbook(t *testing.T) {
	path := writeWorkbook(t, "", [][]any{
		{"Stock export 2024"},
		{"bundle_id", "grade", "width", "weight"},
		{"B1", "DX51D", 1250, 1200.5},
		{"B2", "S235JR", 0.6, "N/A"},
	})

	tbl, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(tbl.Columns, []string{"bundle_id", "grade", "width", "weight"}) {
		t.Errorf("Columns = %v", tbl.Columns)
	}
	if got := tbl.Rows[0].Get("weight"); !got.Equal(core.Float(1200.5)) {
		t.Errorf("weight = %#v, want 1200.5", got)
	}
	if got := tbl.Rows[1].Get("width"); !got.Equal(core.Float(0.6)) {
		t.Errorf("width = %#v, want 0.6", got)
	}
	if !tbl.Rows[1].Get("weight").IsMissing() {
		t.Errorf("N/A weight = %#v, want missing", tbl.Rows[1].Get("weight"))
	}
}

func TestLoad_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Bestand", [][]any{
		{"bundle_id", "grade"},
		{"B1", "DX51D"},
	})

	tbl, err := Load(path, Options{Sheet: "Bestand"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}

	if _, err := Load(path, Options{Sheet: "Missing"}); !errors.Is(err, core.ErrLoad) {
		t.Errorf("Load() unknown sheet error = %v, want ErrLoad", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
	}{
		{"unsupported", "stock.pdf", "%PDF", "LOAD002"},
		{"header only", "stock.csv", "bundle_id;grade\n", "LOAD003"},
		{"empty", "stock.csv", "", "LOAD003"},
		{"corrupt workbook", "stock.xlsx", "not a zip", "LOAD001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content), Options{})
			if !errors.Is(err, core.ErrLoad) {
				t.Fatalf("Load() error = %v, want ErrLoad", err)
			}
			if got := core.IssueFromError(err).Code; got != tt.wantCode {
				t.Errorf("issue code = %s, want %s (%v)", got, tt.wantCode, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv"), Options{}); !errors.Is(err, core.ErrLoad) {
		t.Errorf("Load() missing file error = %v, want ErrLoad", err)
	}
}

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name    string
		records [][]string
		want    int
	}{
		{"header first", [][]string{{"a", "b", "c"}, {"1", "2", "3"}}, 0},
		{"title block", [][]string{{"Report", "", ""}, {"", "", ""}, {"a", "b", "c"}, {"x", "1", "2"}}, 2},
		{"denser later row wins", [][]string{{"a", "b", "", ""}, {"a", "b", "c", "d"}}, 1},
		{"numeric rows never qualify", [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, 0},
		{"falls back to first non-empty", [][]string{{"", ""}, {"1", "2"}}, 1},
		{"all empty", [][]string{{"", ""}}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindHeaderRow(tt.records); got != tt.want {
				t.Errorf("FindHeaderRow() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHeaderNames(t *testing.T) {
	got := HeaderNames([]string{" Bund ", "", "a", "a.1", "a", `="Güte"`}, 7)
	want := []string{"Bund", "Unnamed: 1", "a", "a.1", "a.2", "Güte", "Unnamed: 6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HeaderNames() = %v, want %v", got, want)
	}
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.xlsx", "B.XLSM", "c.csv"} {
		if !Supported(name) {
			t.Errorf("Supported(%q) = false", name)
		}
	}
	for _, name := range []string{"a.xls", "notes.txt", strings.Repeat("x", 3)} {
		if Supported(name) {
			t.Errorf("Supported(%q) = true", name)
		}
	}
}

func TestCleanReader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "a;b\n", "a;b\n"},
		{"bom", "\xEF\xBB\xBFa;b\n", "a;b\n"},
		{"bom only", "\xEF\xBB\xBF", ""},
		{"short", "a", "a"},
		{"latin1", "gr\xfcn", "gr�n"},
		{"multibyte kept", "Grüße €", "Grüße €"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// One byte at a time splits every multi-byte rune across reads.
			r := newCleanReader(iotest.OneByteReader(strings.NewReader(tt.in)))
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
