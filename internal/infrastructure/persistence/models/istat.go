package models

import (
	"time"

	"github.com/statload/backend/internal/domain/sdmx"
)

// DataflowModel maps istat.dataflow
type DataflowModel struct {
	ID       string `gorm:"column:id;type:varchar(255);primaryKey"`
	NomeIT   string `gorm:"column:nome_it;type:text"`
	NomeEN   string `gorm:"column:nome_en;type:text"`
	RefID    string `gorm:"column:ref_id;type:varchar(255)"`
	Version  string `gorm:"column:version;type:varchar(32)"`
	AgencyID string `gorm:"column:agency_id;type:varchar(64)"`
	Package  string `gorm:"column:package;type:varchar(64)"`
}

// TableName returns the table name for the model
func (DataflowModel) TableName() string {
	return "istat.dataflow"
}

// ToDomain converts the model to a domain dataflow
func (m *DataflowModel) ToDomain() sdmx.Dataflow {
	return sdmx.Dataflow{
		ID:       m.ID,
		NameIT:   m.NomeIT,
		NameEN:   m.NomeEN,
		RefID:    m.RefID,
		Version:  m.Version,
		AgencyID: m.AgencyID,
		Package:  m.Package,
	}
}

// DataflowModelFromDomain creates a model from a domain dataflow
func DataflowModelFromDomain(d sdmx.Dataflow) DataflowModel {
	return DataflowModel{
		ID:       d.ID,
		NomeIT:   d.NameIT,
		NomeEN:   d.NameEN,
		RefID:    d.RefID,
		Version:  d.Version,
		AgencyID: d.AgencyID,
		Package:  d.Package,
	}
}

// DataStructureModel maps istat.datastructure
type DataStructureModel struct {
	ID       string `gorm:"column:id;type:varchar(255);primaryKey"`
	NomeIT   string `gorm:"column:nome_it;type:text"`
	NomeEN   string `gorm:"column:nome_en;type:text"`
	Version  string `gorm:"column:version;type:varchar(32)"`
	AgencyID string `gorm:"column:agency_id;type:varchar(64)"`
}

// TableName returns the table name for the model
func (DataStructureModel) TableName() string {
	return "istat.datastructure"
}

// ToDomain converts the model to a domain data structure
func (m *DataStructureModel) ToDomain() *sdmx.DataStructure {
	return &sdmx.DataStructure{
		ID:       m.ID,
		NameIT:   m.NomeIT,
		NameEN:   m.NomeEN,
		Version:  m.Version,
		AgencyID: m.AgencyID,
	}
}

// DataStructureModelFromDomain creates a model from a domain data structure
func DataStructureModelFromDomain(d sdmx.DataStructure) DataStructureModel {
	return DataStructureModel{
		ID:       d.ID,
		NomeIT:   d.NameIT,
		NomeEN:   d.NameEN,
		Version:  d.Version,
		AgencyID: d.AgencyID,
	}
}

// StructureDetailModel maps istat.datastructure_details
type StructureDetailModel struct {
	ID                        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	DataStructureID           string `gorm:"column:datastructure_id;type:varchar(255);not null"`
	Type                      string `gorm:"column:type;type:varchar(32);not null"`
	DetailID                  string `gorm:"column:detail_id;type:varchar(255)"`
	ConceptID                 string `gorm:"column:concept_id;type:varchar(255)"`
	ConceptAgency             string `gorm:"column:concept_agency;type:varchar(64)"`
	MaintainableParentID      string `gorm:"column:maintainable_parent_id;type:varchar(255)"`
	MaintainableParentVersion string `gorm:"column:maintainable_parent_version;type:varchar(32)"`
	ConceptClass              string `gorm:"column:concept_class;type:varchar(64)"`
	Position                  string `gorm:"column:position;type:varchar(16)"`
	Codelist                  string `gorm:"column:codelist;type:varchar(255)"`
	EnumID                    string `gorm:"column:enum_id;type:varchar(255)"`
	EnumVersion               string `gorm:"column:enum_version;type:varchar(32)"`
	EnumAgencyID              string `gorm:"column:enum_agency_id;type:varchar(64)"`
	EnumPackage               string `gorm:"column:enum_package;type:varchar(64)"`
	EnumClass                 string `gorm:"column:enum_class;type:varchar(64)"`
}

// TableName returns the table name for the model
func (StructureDetailModel) TableName() string {
	return "istat.datastructure_details"
}

// StructureDetailModelFromDomain creates a model from a domain detail
func StructureDetailModelFromDomain(d sdmx.StructureDetail) StructureDetailModel {
	return StructureDetailModel{
		DataStructureID:           d.DataStructureID,
		Type:                      d.Type,
		DetailID:                  d.DetailID,
		ConceptID:                 d.ConceptID,
		ConceptAgency:             d.ConceptAgency,
		MaintainableParentID:      d.MaintainableParentID,
		MaintainableParentVersion: d.MaintainableParentVersion,
		ConceptClass:              d.ConceptClass,
		Position:                  d.Position,
		Codelist:                  d.Codelist,
		EnumID:                    d.EnumID,
		EnumVersion:               d.EnumVersion,
		EnumAgencyID:              d.EnumAgencyID,
		EnumPackage:               d.EnumPackage,
		EnumClass:                 d.EnumClass,
	}
}

// StructureGroupModel maps istat.datastructure_groups
type StructureGroupModel struct {
	ID              uint   `gorm:"column:id;primaryKey;autoIncrement"`
	DataStructureID string `gorm:"column:datastructure_id;type:varchar(255);not null"`
	GroupID         string `gorm:"column:group_id;type:varchar(255);not null"`
}

// TableName returns the table name for the model
func (StructureGroupModel) TableName() string {
	return "istat.datastructure_groups"
}

// CategoryModel maps istat.categories
type CategoryModel struct {
	CategoryID string `gorm:"column:category_id;type:varchar(255);primaryKey"`
	NameIT     string `gorm:"column:name_it;type:text"`
	NameEN     string `gorm:"column:name_en;type:text"`
}

// TableName returns the table name for the model
func (CategoryModel) TableName() string {
	return "istat.categories"
}

// ToDomain converts the model to a domain category
func (m *CategoryModel) ToDomain() sdmx.Category {
	return sdmx.Category{ID: m.CategoryID, NameIT: m.NameIT, NameEN: m.NameEN}
}

// DataflowCategoryModel maps istat.dataflow_categories
type DataflowCategoryModel struct {
	DataflowID string `gorm:"column:dataflow_id;type:varchar(255);primaryKey"`
	CategoryID string `gorm:"column:category_id;type:varchar(255);not null"`
}

// TableName returns the table name for the model
func (DataflowCategoryModel) TableName() string {
	return "istat.dataflow_categories"
}

// LoadLogModel maps istat.load_logs
type LoadLogModel struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	DataflowID string     `gorm:"column:dataflow_id;type:varchar(255);not null"`
	Table      string     `gorm:"column:table_name;type:varchar(255);not null"`
	Rows       int64      `gorm:"column:rows;not null;default:0"`
	Status     string     `gorm:"column:status;type:varchar(16);not null"`
	Error      string     `gorm:"column:error;type:text"`
	StartedAt  time.Time  `gorm:"column:started_at;not null"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
}

// TableName returns the table name for the model
func (LoadLogModel) TableName() string {
	return "istat.load_logs"
}

// ToDomain converts the model to a domain load log
func (m *LoadLogModel) ToDomain() *sdmx.LoadLog {
	return &sdmx.LoadLog{
		ID:         m.ID,
		DataflowID: m.DataflowID,
		TableName:  m.Table,
		Rows:       m.Rows,
		Status:     m.Status,
		Error:      m.Error,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
}
