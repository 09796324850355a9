package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// sniffBytes bounds how much of the input the delimiter sniffer looks at.
const sniffBytes = 4096

// readCSV parses a CSV export through a cleaning reader (see stream.go). The
// delimiter is sniffed from the first line.
func readCSV(r io.Reader) ([][]string, error) {
	br := newCleanReader(r)

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than
// commas, which is how European spreadsheet tools export CSV. It only peeks,
// so nothing is consumed.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(sniffBytes) // short inputs return what there is
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}
