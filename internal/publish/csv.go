package publish

import (
	"encoding/csv"
	"io"

	"github.com/JonMunkholm/slexa/internal/core"
)

// WriteCSV writes t with a header row. Missing cells are empty.
func WriteCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, col := range t.Columns {
			rec[i] = r.Get(col).Text()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
