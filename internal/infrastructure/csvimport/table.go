package csvimport

import (
	"io"
	"strings"

	"github.com/statload/backend/internal/domain/viewdef"
)

// Table is a CSV file reduced to sanitized columns and rows. Empty cells
// are nil so they load as NULL.
type Table struct {
	Columns []string
	Rows    [][]any
	Dropped []string
}

// Empty reports whether the file had a header and no data
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// ReadTable reads the whole file. Columns whose lowercase name is in exclude
// are dropped; the rest are sanitized and must stay unique.
func ReadTable(r io.Reader, exclude []string) (*Table, error) {
	parser, err := NewCSVParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[strings.ToLower(e)] = struct{}{}
	}

	table := &Table{}
	var keep []int
	var raw []string
	for i, h := range parser.Headers() {
		if _, ok := skip[strings.ToLower(h)]; ok {
			table.Dropped = append(table.Dropped, h)
			continue
		}
		keep = append(keep, i)
		raw = append(raw, h)
	}

	columns, dups := viewdef.SanitizeColumns(raw)
	if len(dups) > 0 {
		return nil, &DuplicateColumnsError{Columns: dups}
	}
	table.Columns = columns

	for {
		record, err := parser.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(record) {
			continue
		}
		row := make([]any, len(keep))
		for j, i := range keep {
			if record[i] != "" {
				row[j] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
