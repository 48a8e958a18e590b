package viewdef

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Qualified quotes schema and name as "schema"."name"
func Qualified(schema, name string) string {
	if schema == "" {
		return pq.QuoteIdentifier(name)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
}

// Join links one dataset dimension to its codelist table
type Join struct {
	Param string
	Table string
}

// EurostatView describes the view published for a Eurostat dataset
type EurostatView struct {
	Schema      string
	Name        string
	Table       string
	DatasetLink string
	Joins       []Join
}

// SQL renders the CREATE OR REPLACE VIEW statement
func (v EurostatView) SQL() string {
	var sel, from strings.Builder
	sel.WriteString("t.*")
	for _, j := range v.Joins {
		alias := pq.QuoteIdentifier("c_" + j.Param)
		fmt.Fprintf(&sel, ",\n       %s.description AS %s", alias, pq.QuoteIdentifier(j.Param+"_desc"))
		fmt.Fprintf(&from, "\nLEFT JOIN %s AS %s\n    ON t.%s = %s.code",
			Qualified(v.Schema, j.Table), alias, pq.QuoteIdentifier(j.Param), alias)
	}
	fmt.Fprintf(&sel, ",\n       %s AS dataset_link", pq.QuoteLiteral(v.DatasetLink))

	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS\nSELECT\n       %s\nFROM %s t%s",
		Qualified(v.Schema, v.Name), sel.String(), Qualified(v.Schema, v.Table), from.String())
}

// IstatView describes the view published for an ISTAT dataflow.
// Dimensions maps a lowercase dimension column to its codelist table.
type IstatView struct {
	Schema     string
	Name       string
	Table      string
	Dimensions map[string]string
}

// SortedDimensions returns the dimension names in lexical order
func (v IstatView) SortedDimensions() []string {
	dims := make([]string, 0, len(v.Dimensions))
	for d := range v.Dimensions {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}

// SQL renders the CREATE OR REPLACE VIEW statement. Each dimension gets
// its own alias, so two dimensions sharing a codelist are both described.
func (v IstatView) SQL() string {
	t := pq.QuoteIdentifier(v.Table)
	var sel, from strings.Builder
	fmt.Fprintf(&sel, "%s.*,\n    %s.obs_value::float AS obs_value_converted", t, t)
	for _, dim := range v.SortedDimensions() {
		alias := pq.QuoteIdentifier("c_" + dim)
		fmt.Fprintf(&sel, ",\n    %s.name_it AS %s", alias, pq.QuoteIdentifier(dim+"_desc"))
		fmt.Fprintf(&from, "\nLEFT JOIN %s AS %s ON %s.%s = %s.code_id",
			Qualified(v.Schema, v.Dimensions[dim]), alias, t, pq.QuoteIdentifier(dim), alias)
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS\nSELECT\n    %s\nFROM %s AS %s%s",
		Qualified(v.Schema, v.Name), sel.String(), Qualified(v.Schema, v.Table), t, from.String())
}

// CommentOnView renders the bilingual description of a view. Empty when
// both texts are empty.
func CommentOnView(schema, view, it, en string) string {
	if it == "" && en == "" {
		return ""
	}
	text := "Contenuto: " + it + "\nContent: " + en
	return fmt.Sprintf("COMMENT ON VIEW %s IS %s", Qualified(schema, view), pq.QuoteLiteral(text))
}

// DropDatasetViewsSQL returns the statements that drop the views named
// view_<table>... in schema and then the table itself.
func DropDatasetViewsSQL(schema, table string) []string {
	pattern := "view_" + strings.ReplaceAll(table, "_", `\_`) + "%"
	dropViews := fmt.Sprintf(`DO $$
DECLARE
    r RECORD;
BEGIN
    FOR r IN SELECT table_name FROM information_schema.views
             WHERE table_schema = %s AND table_name LIKE %s
    LOOP
        EXECUTE format('DROP VIEW IF EXISTS %%I.%%I CASCADE', %s, r.table_name);
    END LOOP;
END $$`, pq.QuoteLiteral(schema), pq.QuoteLiteral(pattern), pq.QuoteLiteral(schema))
	return []string{dropViews, DropTableSQL(schema, table)}
}

// DropTableSQL drops a table and everything depending on it
func DropTableSQL(schema, table string) string {
	return "DROP TABLE IF EXISTS " + Qualified(schema, table) + " CASCADE"
}
