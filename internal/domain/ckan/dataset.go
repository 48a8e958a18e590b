package ckan

import (
	"sort"
	"strings"
)

// UntaggedGroup collects datasets without tags
const UntaggedGroup = "Senza Tag"

// Dataset is a CKAN package reduced to the fields reported
type Dataset struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Notes string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// TagGroup is the list of datasets sharing a tag
type TagGroup struct {
	Tag      string    `json:"tag" yaml:"tag"`
	Datasets []Dataset `json:"datasets" yaml:"datasets"`
}

// GroupByTag groups datasets under each of their tags. Tags are sorted,
// datasets inside a tag are sorted by case-insensitive name.
func GroupByTag(datasets []Dataset) []TagGroup {
	byTag := make(map[string][]Dataset)
	for _, ds := range datasets {
		if len(ds.Tags) == 0 {
			byTag[UntaggedGroup] = append(byTag[UntaggedGroup], ds)
			continue
		}
		for _, tag := range ds.Tags {
			byTag[tag] = append(byTag[tag], ds)
		}
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	groups := make([]TagGroup, 0, len(tags))
	for _, tag := range tags {
		items := byTag[tag]
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
		groups = append(groups, TagGroup{Tag: tag, Datasets: items})
	}
	return groups
}

// Excerpt returns the first n runes of s followed by "..."
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}
