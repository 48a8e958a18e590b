// Package export writes structure reports as text, YAML or XLSX.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/statload/backend/internal/domain/report"
)

// Format is an output format
type Format string

const (
	FormatText Format = "txt"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the format from a file extension; unknown extensions are text
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatText
	}
}

// WriteFile writes s to path in the format chosen by its extension
func WriteFile(path string, s *report.Structure) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, FormatFor(path), s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write renders s to w
func Write(w io.Writer, format Format, s *report.Structure) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, s)
	case FormatXLSX:
		return WriteXLSX(w, s)
	default:
		return WriteText(w, s)
	}
}

// WriteText writes the indented text report
func WriteText(w io.Writer, s *report.Structure) error {
	_, err := io.WriteString(w, s.Text())
	return err
}

type yamlDocument struct {
	Title   string        `yaml:"title"`
	Entries []report.Line `yaml:"entries"`
}

// WriteYAML writes the title and one entry per node
func WriteYAML(w io.Writer, s *report.Structure) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{Title: s.Title, Entries: s.Entries()}); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// sheetName is the worksheet holding the report
const sheetName = "Struttura"

var xlsxHeaders = []string{"Depth", "Kind", "Code", "Name", "Path"}

// WriteXLSX writes one row per node with depth, kind, code, name and path
func WriteXLSX(w io.Writer, s *report.Structure) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", headerStyle); err != nil {
		return err
	}

	for i, e := range s.Entries() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{e.Depth, e.Kind, e.Code, e.Name, e.Path}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for col, width := range map[string]float64{"A": 8, "B": 14, "C": 24, "D": 60, "E": 80} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: s.Title, Creator: "statload"}); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
