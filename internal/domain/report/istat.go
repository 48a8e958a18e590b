package report

import (
	"sort"

	"github.com/statload/backend/internal/domain/sdmx"
)

// IstatTitle heads the ISTAT report
const IstatTitle = "STRUTTURA ISTAT ALBERO - ESTRAZIONE DA SDMX WS"

const unknownCategory = "NO_CAT"

// IstatStructure lists categories, their dataflows by ID prefix, each
// dataflow's data structure and the codelists of its dimensions. Dataflows
// whose prefix is not a category are listed last.
func IstatStructure(cats []sdmx.Category, flows []sdmx.Dataflow, set sdmx.StructureSet) *Structure {
	known := make(map[string]sdmx.Category, len(cats))
	for _, c := range cats {
		known[c.ID] = c
	}

	byCategory := make(map[string][]sdmx.Dataflow)
	for _, df := range flows {
		key := sdmx.CategoryPrefix(df.ID)
		if _, ok := known[key]; !ok || key == "" {
			key = unknownCategory
		}
		byCategory[key] = append(byCategory[key], df)
	}
	for _, list := range byCategory {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	structures := make(map[string]sdmx.DataStructure, len(set.Structures))
	for _, ds := range set.Structures {
		structures[ds.ID] = ds
	}
	dimensions := make(map[string][]sdmx.StructureDetail)
	for _, d := range set.Details {
		if d.IsDimension() {
			dimensions[d.DataStructureID] = append(dimensions[d.DataStructureID], d)
		}
	}

	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s := &Structure{Title: IstatTitle}
	for _, id := range ids {
		cat := known[id]
		name := firstNonEmpty(cat.NameIT, cat.NameEN, "N/A")
		s.add(Line{
			Text: "* Categoria: " + id + "  (Nome: " + name + ")",
			Kind: KindCategory, Code: id, Name: name, Path: id,
		})

		list := byCategory[id]
		if len(list) == 0 {
			s.note(1, "   - Nessun dataflow associato a questa categoria.")
			s.blank()
			continue
		}
		for _, df := range list {
			s.dataflow(id, df, structures, dimensions)
		}
		s.blank()
	}

	if list := byCategory[unknownCategory]; len(list) > 0 {
		s.add(Line{
			Text: "* CATEGORIA SCONOSCIUTA (Dataflow senza prefisso underscore)",
			Kind: KindCategory, Code: unknownCategory, Name: "CATEGORIA SCONOSCIUTA", Path: unknownCategory,
		})
		for _, df := range list {
			name := firstNonEmpty(df.NameIT, df.NameEN, "N/A")
			s.add(Line{
				Text:  "   - Dataflow: " + df.ID + " (Nome: " + name + ")",
				Depth: 1, Kind: KindDataflow, Code: df.ID, Name: name, Path: unknownCategory + " > " + df.ID,
			})
		}
		s.blank()
	}
	return s
}

func (s *Structure) dataflow(catID string, df sdmx.Dataflow, structures map[string]sdmx.DataStructure, dimensions map[string][]sdmx.StructureDetail) {
	name := firstNonEmpty(df.NameIT, df.NameEN, "N/A")
	path := catID + " > " + df.ID
	s.add(Line{
		Text:  "   - Dataflow: " + df.ID + "  (Nome: " + name + ")",
		Depth: 1, Kind: KindDataflow, Code: df.ID, Name: name, Path: path,
	})

	ds, ok := structures[df.RefID]
	if df.RefID == "" || !ok {
		s.note(2, "       (DataStructure non trovata o ref_id mancante)")
		s.blank()
		return
	}
	dsName := firstNonEmpty(ds.NameIT, ds.NameEN, "N/A")
	path += " > " + ds.ID
	s.add(Line{
		Text:  "       -> DataStructure: " + ds.ID + " (Nome: " + dsName + ")",
		Depth: 2, Kind: KindDataStructure, Code: ds.ID, Name: dsName, Path: path,
	})

	dims := dimensions[ds.ID]
	if len(dims) == 0 {
		s.note(3, "           Nessuna dimensione con codelist associata trovata.")
		s.blank()
		return
	}
	for _, d := range dims {
		text := "           -> Dimensione: " + d.DetailID + " (no codelist)"
		if d.EnumID != "" {
			text = "           -> Dimensione: " + d.DetailID + ", codelist = " + d.EnumID
		}
		s.add(Line{
			Text:  text,
			Depth: 3, Kind: KindDimension, Code: d.DetailID, Name: d.EnumID, Path: path + " > " + d.DetailID,
		})
	}
	s.blank()
}
