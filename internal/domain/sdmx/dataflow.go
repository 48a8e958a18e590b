package sdmx

import (
	"strings"

	"github.com/statload/backend/internal/domain/shared"
)

// Dataflow is an ISTAT dataflow as listed by the SDMX dataflow endpoint
type Dataflow struct {
	ID       string `json:"id"`
	NameIT   string `json:"nome_it,omitempty"`
	NameEN   string `json:"nome_en,omitempty"`
	RefID    string `json:"ref_id,omitempty"`
	Version  string `json:"version,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
	Package  string `json:"package,omitempty"`
}

// DisplayName returns the Italian name, then the English one, then the ID
func (d Dataflow) DisplayName() string {
	return firstNonEmpty(d.NameIT, d.NameEN, d.ID)
}

// TableName is the name used for the dataflow's data table listing, id_refid
func (d Dataflow) TableName() string {
	if d.RefID == "" {
		return d.ID
	}
	return d.ID + "_" + d.RefID
}

// DataStructure is a data structure definition (DSD)
type DataStructure struct {
	ID       string `json:"id"`
	NameIT   string `json:"nome_it,omitempty"`
	NameEN   string `json:"nome_en,omitempty"`
	Version  string `json:"version,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
}

// Component types found among structure details
const (
	ComponentDimension = "Dimension"
	ComponentAttribute = "Attribute"
	ComponentMeasure   = "Measure"
)

// StructureDetail is one dimension, attribute or measure of a DSD
type StructureDetail struct {
	DataStructureID           string `json:"datastructure_id"`
	Type                      string `json:"type"`
	DetailID                  string `json:"detail_id"`
	ConceptID                 string `json:"concept_id,omitempty"`
	ConceptAgency             string `json:"concept_agency,omitempty"`
	MaintainableParentID      string `json:"maintainable_parent_id,omitempty"`
	MaintainableParentVersion string `json:"maintainable_parent_version,omitempty"`
	ConceptClass              string `json:"concept_class,omitempty"`
	Position                  string `json:"position,omitempty"`
	Codelist                  string `json:"codelist,omitempty"`
	EnumID                    string `json:"enum_id,omitempty"`
	EnumVersion               string `json:"enum_version,omitempty"`
	EnumAgencyID              string `json:"enum_agency_id,omitempty"`
	EnumPackage               string `json:"enum_package,omitempty"`
	EnumClass                 string `json:"enum_class,omitempty"`
}

// IsDimension reports whether the detail is a dimension
func (d StructureDetail) IsDimension() bool {
	return d.Type == ComponentDimension
}

// StructureGroup is a group declared by a DSD
type StructureGroup struct {
	DataStructureID string `json:"datastructure_id"`
	GroupID         string `json:"group_id"`
}

// StructureSet is the flattened content of a datastructure message
type StructureSet struct {
	Structures []DataStructure
	Details    []StructureDetail
	Groups     []StructureGroup
}

// StructureIDs returns the IDs of the structures in the set
func (s StructureSet) StructureIDs() []string {
	ids := make([]string, 0, len(s.Structures))
	for _, st := range s.Structures {
		ids = append(ids, st.ID)
	}
	return ids
}

// DimensionCodelist pairs a dimension of a dataflow with its codelist
type DimensionCodelist struct {
	DetailID string `json:"detail_id"`
	EnumID   string `json:"enum_id"`
}

// ParseDataflowIDs splits a comma separated list of IDs, trimming blanks
// and dropping empty entries.
func ParseDataflowIDs(input string) []string {
	var ids []string
	for _, part := range strings.Split(input, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// FilterKnown keeps the ids present in known, preserving order.
// The second result lists the rejected ids.
func FilterKnown(ids []string, known []Dataflow) ([]string, []string) {
	index := make(map[string]struct{}, len(known))
	for _, d := range known {
		index[d.ID] = struct{}{}
	}
	var kept, rejected []string
	for _, id := range ids {
		if _, ok := index[id]; ok {
			kept = append(kept, id)
		} else {
			rejected = append(rejected, id)
		}
	}
	return kept, rejected
}

// ValidateID rejects empty identifiers
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return shared.ErrInvalidInput.WithMessage("identifier cannot be empty")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
