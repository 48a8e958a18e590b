// Package viewdef builds table and view identifiers and the SQL that
// publishes a loaded dataset as a view joined to its codelists.
package viewdef

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	eurostatTitleMax = 80
	istatNameMax     = 50
)

var (
	nonWord            = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	nonWordRun         = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	underscoreRun      = regexp.MustCompile(`__+`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	titleDisallowed    = regexp.MustCompile(`[^a-zA-Z0-9 \-()%_]`)
	viewNameDisallowed = regexp.MustCompile(`[^a-z0-9_\[\]]`)
)

// SanitizeColumnName lowercases and trims s, turns spaces into underscores
// and removes every remaining non-word character. Leading digits are kept.
func SanitizeColumnName(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), " ", "_")
	return nonWord.ReplaceAllString(s, "")
}

// EurostatViewName derives the view name from a dataset title and code,
// e.g. "GDP - % change" and "tec00115" give "gdp___change_[tec00115]".
func EurostatViewName(title, code string) string {
	t := strings.TrimSpace(titleDisallowed.ReplaceAllString(title, ""))
	t = truncateRunes(t, eurostatTitleMax)
	raw := strings.TrimSpace(strings.ToLower(t + " [" + code + "]"))
	raw = whitespaceRun.ReplaceAllString(raw, "_")
	return viewNameDisallowed.ReplaceAllString(raw, "")
}

// IstatViewName derives the view name of a dataflow from its name and ID.
// An empty name falls back to the ID.
func IstatViewName(name, id string) string {
	if strings.TrimSpace(name) == "" {
		name = id
	}
	return sanitizeForViewName(name) + "_[" + id + "]"
}

func sanitizeForViewName(s string) string {
	s = foldAccents(s)
	s = nonWordRun.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.ToLower(strings.Trim(s, "_"))
	return truncateRunes(s, istatNameMax)
}

// foldAccents strips combining marks, so "attività" becomes "attivita"
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// EurostatTableName is the table holding a dataset's observations
func EurostatTableName(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), ".", "_")
}

// EurostatCodelistTable is the table holding the codelist of one dataset dimension
func EurostatCodelistTable(code, par string) string {
	return EurostatTableName(code) + "_" + strings.ToLower(par) + "_codelist"
}

// IstatCodelistTable is the table holding an ISTAT codelist
func IstatCodelistTable(enumID string) string {
	return SanitizeColumnName(enumID)
}

// SanitizeColumns sanitizes every column name. The second result lists
// names that collide after sanitization.
func SanitizeColumns(columns []string) ([]string, []string) {
	out := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	var dups []string
	for i, c := range columns {
		s := SanitizeColumnName(c)
		out[i] = s
		seen[s]++
		if seen[s] == 2 {
			dups = append(dups, s)
		}
	}
	return out, dups
}
