// Package tabular decodes spreadsheet-style byte payloads into rows and
// ordered column names for contact ingestion.
//
// Missing cells normalize to the empty string, never an absent key, and
// column names keep their original text and order.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmpty         = errors.New("tabular: no data")
	ErrUnknownFormat = errors.New("tabular: unknown format")
)

// Table is decoded tabular input: string-keyed rows plus the source
// columns in their original order.
type Table struct {
	Rows    []map[string]string `json:"rows"`
	Columns []string            `json:"columns"`
}

// Decode parses data in the declared format ("csv" or "tsv"). The first
// record is the header row.
func Decode(data []byte, format string) (Table, error) {
	var sep rune
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		sep = ','
	case "tsv", "tab":
		sep = '\t'
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // rows may be ragged; short rows pad to ""

	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("tabular: decode: %w", err)
	}
	if len(records) == 0 {
		return Table{}, ErrEmpty
	}

	columns := make([]string, 0, len(records[0]))
	for _, c := range records[0] {
		columns = append(columns, strings.TrimSpace(c))
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return Table{Rows: rows, Columns: columns}, nil
}
