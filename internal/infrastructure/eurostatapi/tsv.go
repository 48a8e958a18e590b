package eurostatapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/domain/viewdef"
)

// missingValue marks an unavailable observation
const missingValue = ":"

// Dataset is a parsed Eurostat TSV: dimension columns followed by one
// column per time period.
type Dataset struct {
	Columns    []string
	Params     []string
	Dimensions int
	Rows       [][]any
}

// TimeColumns returns the time period columns
func (d *Dataset) TimeColumns() []string {
	return d.Columns[d.Dimensions:]
}

// DimensionColumns returns the dimension columns, geo included
func (d *Dataset) DimensionColumns() []string {
	return d.Columns[:d.Dimensions]
}

// ParseTSV reads a dataset in the SDMX 2.1 TSV layout. Observations become
// decimal.Decimal, missing ones nil; status flags are dropped.
func ParseTSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, shared.ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read tsv header: %w", err)
	}

	ds, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	periods := len(ds.Columns) - ds.Dimensions
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tsv line %d: %w", line, err)
		}
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}
		ds.Rows = append(ds.Rows, parseRow(record, ds.Dimensions, periods))
	}
	if len(ds.Rows) == 0 {
		return nil, shared.ErrEmptyDataset
	}
	return ds, nil
}

func parseHeader(header []string) (*Dataset, error) {
	if len(header) == 0 || strings.TrimSpace(header[0]) == "" {
		return nil, shared.ErrEmptyDataset
	}
	dims := strings.Split(strings.TrimPrefix(header[0], "\ufeff"), ",")
	last := dims[len(dims)-1]
	if before, _, found := strings.Cut(last, `\`); found {
		dims[len(dims)-1] = before
	}

	params := make([]string, len(dims))
	for i, d := range dims {
		params[i] = strings.ToLower(strings.TrimSpace(d))
	}

	raw := make([]string, 0, len(header)-1+len(dims))
	raw = append(raw, dims...)
	for _, p := range header[1:] {
		raw = append(raw, strings.TrimSpace(p))
	}
	columns, dups := viewdef.SanitizeColumns(raw)
	if len(dups) > 0 {
		return nil, shared.ErrInvalidInput.WithMessage("duplicate columns after sanitization: " + strings.Join(dups, ", "))
	}
	return &Dataset{Columns: columns, Params: params, Dimensions: len(dims)}, nil
}

func parseRow(record []string, dims, periods int) []any {
	row := make([]any, dims+periods)
	codes := strings.Split(record[0], ",")
	for i := 0; i < dims; i++ {
		if i < len(codes) {
			row[i] = strings.TrimSpace(codes[i])
		} else {
			row[i] = ""
		}
	}
	for i := 0; i < periods; i++ {
		if i+1 < len(record) {
			if v, ok := ParseObservation(record[i+1]); ok {
				row[dims+i] = v
			}
		}
	}
	return row
}

// ParseObservation parses a TSV cell such as "12.5", "12.5 p" or ": c".
// The second result is false for missing or unreadable values.
func ParseObservation(cell string) (decimal.Decimal, bool) {
	fields := strings.Fields(cell)
	if len(fields) == 0 || strings.HasPrefix(fields[0], missingValue) {
		return decimal.Decimal{}, false
	}
	value := strings.TrimRight(fields[0], "abcdefghijklmnopqrstuvwxyz")
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
