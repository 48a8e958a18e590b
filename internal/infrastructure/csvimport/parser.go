// Package csvimport reads downloaded CSV files into columns and rows ready
// for a bulk copy.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// CSVParser reads a comma separated stream, stripping a UTF-8 BOM and
// transcoding Windows-1252 input. Quotes are parsed lazily and leading
// spaces are trimmed.
type CSVParser struct {
	headers    []string
	currentRow int
	reader     *csv.Reader
}

// NewCSVParser creates a parser over r
func NewCSVParser(r io.Reader) (*CSVParser, error) {
	parser := &CSVParser{}

	buf := bufio.NewReader(r)
	bom, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	source, err := decodeInput(buf)
	if err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(source)
	parser.reader.LazyQuotes = true
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1
	return parser, nil
}

// decodeInput sniffs the first block: valid UTF-8 is read as is, anything
// else is decoded as Windows-1252.
func decodeInput(r *bufio.Reader) (io.Reader, error) {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read csv for encoding detection: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if validPrefix(content, len(content) == checkSize) {
		return r, nil
	}
	return charmap.Windows1252.NewDecoder().Reader(r), nil
}

// validPrefix reports whether b is valid UTF-8, tolerating a rune cut at the
// end of a partial block.
func validPrefix(b []byte, partial bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !partial {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return true
		}
	}
	return false
}

// ParseHeader reads the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		p.headers[i] = trimSpaces(h)
	}
	if len(p.headers) == 0 || (len(p.headers) == 1 && p.headers[0] == "") {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// ReadRecord reads the next record padded or cut to the header width
func (p *CSVParser) ReadRecord() ([]string, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, NewRowError(p.currentRow, "", ErrCodeImportMalformedRow, err.Error())
	}

	out := make([]string, len(p.headers))
	for i := range out {
		if i < len(record) {
			out[i] = trimSpaces(record[i])
		}
	}
	return out, nil
}

func trimSpaces(s string) string {
	start, end := 0, len(s)
	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}
	return s[start:end]
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
