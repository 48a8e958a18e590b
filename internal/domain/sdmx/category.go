package sdmx

import (
	"sort"
	"strings"
)

// Category is a node of an ISTAT category scheme
type Category struct {
	ID     string `json:"id"`
	NameIT string `json:"nome_it,omitempty"`
	NameEN string `json:"nome_en,omitempty"`
}

// DisplayName returns the Italian name, then the English one, then the ID
func (c Category) DisplayName() string {
	return firstNonEmpty(c.NameIT, c.NameEN, c.ID)
}

// DataflowCategory links a dataflow to its category
type DataflowCategory struct {
	DataflowID string `json:"df_id"`
	CategoryID string `json:"cat_id"`
}

// SortCategories orders categories by ID in place
func SortCategories(cats []Category) {
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
}

// CategoryMapper assigns dataflows to categories by ID prefix
type CategoryMapper struct {
	categories []string
}

// NewCategoryMapper prepares a mapper over the given categories
func NewCategoryMapper(cats []Category) *CategoryMapper {
	ids := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}
	// longest first, then lexical for a stable choice
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) > len(ids[j])
		}
		return ids[i] < ids[j]
	})
	return &CategoryMapper{categories: ids}
}

// CategoryFor returns the longest category ID such that dataflowID starts
// with that ID followed by "_".
func (m *CategoryMapper) CategoryFor(dataflowID string) (string, bool) {
	for _, id := range m.categories {
		if strings.HasPrefix(dataflowID, id+"_") {
			return id, true
		}
	}
	return "", false
}

// Map links every dataflow that has a matching category. Unmatched dataflows
// are omitted.
func (m *CategoryMapper) Map(dataflowIDs []string) []DataflowCategory {
	var out []DataflowCategory
	for _, df := range dataflowIDs {
		if cat, ok := m.CategoryFor(df); ok {
			out = append(out, DataflowCategory{DataflowID: df, CategoryID: cat})
		}
	}
	return out
}

// CategoryPrefix is the part of a dataflow ID before the first "_".
// IDs without an underscore have no prefix.
func CategoryPrefix(dataflowID string) string {
	prefix, _, found := strings.Cut(dataflowID, "_")
	if !found {
		return ""
	}
	return prefix
}
