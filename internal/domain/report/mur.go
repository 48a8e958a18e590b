package report

import (
	"github.com/statload/backend/internal/domain/ckan"
)

// MURTitle heads the MUR report
const MURTitle = "Struttura dataset MUR (CKAN) - raggruppati per Tag"

// notesExcerpt is how many characters of a description are printed
const notesExcerpt = 200

// MURStructure lists datasets under each tag
func MURStructure(groups []ckan.TagGroup) *Structure {
	s := &Structure{Title: MURTitle}
	for _, g := range groups {
		s.add(Line{Text: "TAG: " + g.Tag, Kind: KindTag, Code: g.Tag, Name: g.Tag, Path: g.Tag})
		for _, ds := range g.Datasets {
			s.add(Line{
				Text:  "   - dataset: " + ds.Name + " (ID: " + ds.ID + ")",
				Depth: 1, Kind: KindDataset, Code: ds.ID, Name: ds.Name, Path: g.Tag + " > " + ds.Name,
			})
			if ds.Notes != "" {
				s.note(2, "       descrizione: "+ckan.Excerpt(ds.Notes, notesExcerpt))
			}
		}
		s.blank()
	}
	return s
}
