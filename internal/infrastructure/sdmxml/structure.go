package sdmxml

import (
	"io"

	"github.com/statload/backend/internal/domain/sdmx"
)

var (
	refStep       = [2]string{AnyNS, "Ref"}
	structureStep = [2]string{NSStructure, "Structure"}
)

// detailKinds are the component elements extracted from a data structure,
// in output order. TimeDimension is intentionally absent.
var detailKinds = []string{sdmx.ComponentDimension, sdmx.ComponentAttribute, sdmx.ComponentMeasure}

// ParseDataflows extracts every structure:Dataflow of a dataflow message
func ParseDataflows(r io.Reader) ([]sdmx.Dataflow, error) {
	root, err := Decode(r)
	if err != nil {
		return nil, err
	}
	flows := root.Descendants(NSStructure, "Dataflow")
	out := make([]sdmx.Dataflow, 0, len(flows))
	for _, df := range flows {
		ref := df.Path(structureStep, refStep)
		out = append(out, sdmx.Dataflow{
			ID:       df.Attr("id"),
			NameIT:   df.LocalizedName("it"),
			NameEN:   df.LocalizedName("en"),
			RefID:    ref.Attr("id"),
			Version:  df.Attr("version"),
			AgencyID: df.Attr("agencyID"),
			Package:  ref.Attr("package"),
		})
	}
	return out, nil
}

// ParseDataStructures extracts structures, their components and groups from
// a datastructure message.
func ParseDataStructures(r io.Reader) (sdmx.StructureSet, error) {
	var set sdmx.StructureSet
	root, err := Decode(r)
	if err != nil {
		return set, err
	}
	for _, ds := range root.Descendants(NSStructure, "DataStructure") {
		id := ds.Attr("id")
		set.Structures = append(set.Structures, sdmx.DataStructure{
			ID:       id,
			NameIT:   ds.LocalizedName("it"),
			NameEN:   ds.LocalizedName("en"),
			Version:  ds.Attr("version"),
			AgencyID: ds.Attr("agencyID"),
		})
		for _, kind := range detailKinds {
			for _, el := range ds.Descendants(NSStructure, kind) {
				// AttributeRelationship references reuse the Dimension name without an id
				if el.Attr("id") == "" {
					continue
				}
				set.Details = append(set.Details, detailOf(id, kind, el))
			}
		}
		for _, g := range ds.Descendants(NSStructure, "Group") {
			set.Groups = append(set.Groups, sdmx.StructureGroup{
				DataStructureID: id,
				GroupID:         g.Attr("id"),
			})
		}
	}
	return set, nil
}

func detailOf(structureID, kind string, el *Element) sdmx.StructureDetail {
	concept := el.Path([2]string{NSStructure, "ConceptIdentity"}, refStep)
	localRep := el.Child(NSStructure, "LocalRepresentation")
	enum := localRep.Path([2]string{NSStructure, "Enumeration"}, refStep)
	return sdmx.StructureDetail{
		DataStructureID:           structureID,
		Type:                      kind,
		DetailID:                  el.Attr("id"),
		ConceptID:                 concept.Attr("id"),
		ConceptAgency:             concept.Attr("agencyID"),
		MaintainableParentID:      concept.Attr("maintainableParentID"),
		MaintainableParentVersion: concept.Attr("maintainableParentVersion"),
		ConceptClass:              concept.Attr("class"),
		Position:                  el.Attr("position"),
		Codelist:                  localRep.Child(AnyNS, "Ref").Attr("id"),
		EnumID:                    enum.Attr("id"),
		EnumVersion:               enum.Attr("version"),
		EnumAgencyID:              enum.Attr("agencyID"),
		EnumPackage:               enum.Attr("package"),
		EnumClass:                 enum.Attr("class"),
	}
}

// ParseCategorySchemes extracts every category of every scheme, nested
// categories included. A repeated ID keeps the names of its last
// occurrence and the position of its first.
func ParseCategorySchemes(r io.Reader) ([]sdmx.Category, error) {
	root, err := Decode(r)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	var out []sdmx.Category
	for _, scheme := range root.Descendants(NSStructure, "CategoryScheme") {
		for _, el := range scheme.Descendants(NSStructure, "Category") {
			cat := sdmx.Category{
				ID:     el.Attr("id"),
				NameIT: ownName(el, "it"),
				NameEN: ownName(el, "en"),
			}
			if i, ok := index[cat.ID]; ok {
				out[i] = cat
				continue
			}
			index[cat.ID] = len(out)
			out = append(out, cat)
		}
	}
	return out, nil
}

// ownName prefers the element's direct Name children so a nested category
// never borrows its parent's label.
func ownName(el *Element, lang string) string {
	for _, n := range el.ChildElements() {
		if n.is(NSCommon, "Name") && n.Lang() == lang {
			return n.Value()
		}
	}
	return ""
}

// ParseCodelists extracts every codelist with its codes
func ParseCodelists(r io.Reader) ([]sdmx.Codelist, error) {
	root, err := Decode(r)
	if err != nil {
		return nil, err
	}
	lists := root.Descendants(NSStructure, "Codelist")
	out := make([]sdmx.Codelist, 0, len(lists))
	for _, cl := range lists {
		list := sdmx.Codelist{
			ID:       cl.Attr("id"),
			AgencyID: cl.Attr("agencyID"),
			Version:  cl.Attr("version"),
			NameIT:   ownName(cl, "it"),
			NameEN:   ownName(cl, "en"),
		}
		for _, code := range cl.Descendants(NSStructure, "Code") {
			list.Codes = append(list.Codes, sdmx.Code{
				ID:     code.Attr("id"),
				NameIT: ownName(code, "it"),
				NameEN: ownName(code, "en"),
			})
		}
		out = append(out, list)
	}
	return out, nil
}

// Codes flattens the codes of every codelist in the message
func Codes(lists []sdmx.Codelist) []sdmx.Code {
	var out []sdmx.Code
	for _, l := range lists {
		out = append(out, l.Codes...)
	}
	return out
}
