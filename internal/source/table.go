package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// SchemaError reports a source table whose header does not match the
// declared schema. Both directions are fatal: a missing column would
// silently blank a field, an unexpected one means the sheet layout changed
// under us.
type SchemaError struct {
	Table      string
	Missing    []string
	Unexpected []string
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected columns: "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Table, strings.Join(parts, "; "))
}

// table is a parsed CSV payload with its header resolved to a name→index
// mapping once, so row access is by column name everywhere downstream.
type table struct {
	name string
	cols map[string]int
	rows [][]string
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

func parseTable(name string, data []byte, columns []string) (*table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // width is validated against the header below
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no header row", name)
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.TrimSpace(h)] = i
	}

	expected := make(map[string]bool, len(columns))
	schemaErr := &SchemaError{Table: name}
	for _, c := range columns {
		expected[c] = true
		if _, ok := cols[c]; !ok {
			schemaErr.Missing = append(schemaErr.Missing, c)
		}
	}
	for _, h := range records[0] {
		if !expected[strings.TrimSpace(h)] {
			schemaErr.Unexpected = append(schemaErr.Unexpected, strings.TrimSpace(h))
		}
	}
	if len(schemaErr.Missing) > 0 || len(schemaErr.Unexpected) > 0 {
		return nil, schemaErr
	}

	for i, row := range records[1:] {
		if len(row) != len(records[0]) {
			return nil, fmt.Errorf("%s row %d: has %d fields, header has %d", name, i+1, len(row), len(records[0]))
		}
	}

	return &table{name: name, cols: cols, rows: records[1:]}, nil
}

// get returns the trimmed cell for col; empty means the optional field is
// absent.
func (t *table) get(row []string, col string) string {
	return strings.TrimSpace(row[t.cols[col]])
}
