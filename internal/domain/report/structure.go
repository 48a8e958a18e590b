// Package report builds the structure reports of the three catalogues:
// indented text lines plus one typed entry per node for tabular exports.
package report

import (
	"strings"
	"unicode/utf8"
)

// Entry kinds
const (
	KindBranch        = "branch"
	KindLeaf          = "leaf"
	KindCategory      = "category"
	KindDataflow      = "dataflow"
	KindDataStructure = "datastructure"
	KindDimension     = "dimension"
	KindTag           = "tag"
	KindDataset       = "dataset"
	KindNote          = "note"
	kindBlank         = ""
)

// Line is one line of a report. Blank lines carry no kind.
type Line struct {
	Text  string `yaml:"-"`
	Depth int    `yaml:"depth"`
	Kind  string `yaml:"kind"`
	Code  string `yaml:"code,omitempty"`
	Name  string `yaml:"name,omitempty"`
	Path  string `yaml:"path,omitempty"`
}

// Structure is a titled report
type Structure struct {
	Title string `yaml:"title"`
	Lines []Line `yaml:"-"`
}

// Entries returns the non blank lines
func (s *Structure) Entries() []Line {
	out := make([]Line, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.Kind != kindBlank {
			out = append(out, l)
		}
	}
	return out
}

// Text renders the title, an underline of the same width, a blank line and
// every report line, each terminated by a newline.
func (s *Structure) Text() string {
	var b strings.Builder
	b.WriteString(s.Title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(s.Title)))
	b.WriteString("\n\n")
	for _, l := range s.Lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Structure) add(l Line) {
	s.Lines = append(s.Lines, l)
}

func (s *Structure) blank() {
	s.Lines = append(s.Lines, Line{})
}

func (s *Structure) note(depth int, text string) {
	s.Lines = append(s.Lines, Line{Text: text, Depth: depth, Kind: KindNote, Name: strings.TrimSpace(text)})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
