package publish

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/slexa/internal/core"
)

const (
	// DataSheet holds the published table.
	DataSheet = "stock"

	// ErrorSheet holds a file's error log in result exports.
	ErrorSheet = "error_log"
)

var errorLogColumns = []string{"code", "severity", "kind", "bundle", "column", "message"}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, t *core.Table) error {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if err := wb.SetSheetName("Sheet1", DataSheet); err != nil {
		return err
	}
	if err := writeTableSheet(wb, DataSheet, t); err != nil {
		return err
	}
	return wb.Write(w)
}

// WriteResultXLSX writes a file result as a workbook with the table (when the
// file got far enough to have one) and the error log on its own sheet.
func WriteResultXLSX(w io.Writer, res *core.FileResult) error {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if err := wb.SetSheetName("Sheet1", ErrorSheet); err != nil {
		return err
	}
	if res.Table != nil {
		idx, err := wb.NewSheet(DataSheet)
		if err != nil {
			return err
		}
		if err := writeTableSheet(wb, DataSheet, res.Table); err != nil {
			return err
		}
		wb.SetActiveSheet(idx)
	}

	if err := writeHeader(wb, ErrorSheet, errorLogColumns); err != nil {
		return err
	}
	for i, is := range res.ErrorLog {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{is.Code, string(is.Severity), string(is.Kind), is.Bundle, is.Column, is.Message}
		if err := wb.SetSheetRow(ErrorSheet, cell, &row); err != nil {
			return fmt.Errorf("write error log row %d: %w", i+1, err)
		}
	}
	return wb.Write(w)
}

func writeTableSheet(wb *excelize.File, sheet string, t *core.Table) error {
	if err := writeHeader(wb, sheet, t.Columns); err != nil {
		return err
	}
	for i, r := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = cellValue(r.Get(col))
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeHeader(wb *excelize.File, sheet string, columns []string) error {
	style, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return err
	}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := wb.SetRowStyle(sheet, 1, 1, style); err != nil {
		return err
	}
	return wb.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue maps a value to the native type excelize writes for it. Missing
// cells stay blank.
func cellValue(v core.Value) any {
	switch v.Kind {
	case core.KindString:
		return v.S
	case core.KindInt:
		return v.I
	case core.KindFloat:
		return v.F
	case core.KindBool:
		return v.B
	case core.KindDate:
		return v.Text()
	default:
		return nil
	}
}
