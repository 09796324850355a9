// Package loader reads raw stock spreadsheets into loosely typed tables.
//
// Excel workbooks are read with excelize, CSV files with encoding/csv. Both
// paths end in the same header detection and cell inference, so the engine
// never sees where a table came from.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/slexa/internal/core"
)

// Extensions lists the raw file types the loader accepts, lower case.
var Extensions = []string{".xlsx", ".xlsm", ".csv"}

// ErrUnsupportedFile is returned for files with an extension not in Extensions.
var ErrUnsupportedFile = errors.New("unsupported file type")

// errNoDataRows is returned when the header is the last non-empty row.
var errNoDataRows = errors.New("no data rows")

// Options controls how a file is read.
type Options struct {
	// Sheet names the worksheet to read. Empty means the first sheet.
	Sheet string
}

// Supported reports whether name has an extension the loader can read.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads the file at path into a table. Every failure wraps core.ErrLoad.
func Load(path string, opts Options) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrLoad, err)
	}
	defer f.Close()

	return LoadReader(f, filepath.Base(path), opts)
}

// LoadReader reads a file's content; name is used only for its extension
// and in error messages.
func LoadReader(r io.Reader, name string, opts Options) (*core.Table, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(r, opts.Sheet)
	case ".csv":
		records, err = readCSV(r)
	default:
		err = fmt.Errorf("%w %q", ErrUnsupportedFile, filepath.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, name, err)
	}

	t, err := buildTable(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, name, err)
	}
	core.StandardizeMissing(t)
	return t, nil
}

// readWorkbook returns the raw cell texts of one worksheet. Cells are read
// unformatted, so numbers and dates arrive as plain numbers rather than as
// whatever display format the author chose.
func readWorkbook(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// buildTable detects the header row and turns the records below it into
// rows. Line numbers are 1-based positions in the source sheet.
func buildTable(records [][]string) (*core.Table, error) {
	h := FindHeaderRow(records)
	if h < 0 {
		return nil, errNoDataRows
	}

	width := 0
	for _, rec := range records[h:] {
		width = max(width, len(rec))
	}
	columns := HeaderNames(records[h], width)
	t := core.NewTable(columns...)

	for i := h + 1; i < len(records); i++ {
		rec := records[i]
		if isEmptyRow(rec) {
			continue
		}
		row := core.NewRow(i + 1)
		for j, col := range columns {
			if j < len(rec) {
				row.Set(col, inferCell(rec[j]))
			} else {
				row.Set(col, core.Missing())
			}
		}
		t.Append(row)
	}

	if t.Len() == 0 {
		return nil, errNoDataRows
	}
	return t, nil
}

// HeaderNames cleans header texts and makes them unique. Blank headers become
// "Unnamed: <i>" and repeats get a ".<n>" suffix: name, name.1, name.2.
func HeaderNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	next := make(map[string]int)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = core.CleanCell(header[i])
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for used[name] {
			next[base]++
			name = base + "." + strconv.Itoa(next[base])
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// inferCell gives a raw cell its loose type: missing, float or string.
func inferCell(raw string) core.Value {
	s := core.CleanCell(raw)
	if core.IsMissingToken(s) {
		return core.Missing()
	}
	if core.IsStrictNumber(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return core.Float(f)
		}
	}
	return core.Str(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
