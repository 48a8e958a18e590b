package models

import (
	"time"

	"github.com/statload/backend/internal/domain/eurostat"
)

// DownloadLogModel maps eurostat.download_logs
type DownloadLogModel struct {
	DatasetCode      string    `gorm:"column:dataset_code;type:varchar(255);primaryKey"`
	LastDownloadDate time.Time `gorm:"column:last_download_date;type:date;not null"`
}

// TableName returns the table name for the model
func (DownloadLogModel) TableName() string {
	return "eurostat.download_logs"
}

// ToDomain converts the model to a domain download log
func (m *DownloadLogModel) ToDomain() *eurostat.DownloadLog {
	return &eurostat.DownloadLog{
		DatasetCode:      m.DatasetCode,
		LastDownloadDate: eurostat.Day(m.LastDownloadDate),
	}
}

// ViewCatalogModel maps eurostat.view_catalog
type ViewCatalogModel struct {
	ViewName     string    `gorm:"column:view_name;type:text;primaryKey"`
	DatasetCode  string    `gorm:"column:dataset_code;type:text;not null"`
	DatasetTitle string    `gorm:"column:dataset_title;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

// TableName returns the table name for the model
func (ViewCatalogModel) TableName() string {
	return "eurostat.view_catalog"
}

// ToDomain converts the model to a catalogue entry
func (m *ViewCatalogModel) ToDomain() eurostat.ViewEntry {
	return eurostat.ViewEntry{
		ViewName:     m.ViewName,
		DatasetCode:  m.DatasetCode,
		DatasetTitle: m.DatasetTitle,
		CreatedAt:    m.CreatedAt,
	}
}

// EurostatDatasetModel maps eurostat.eurostat_datasets
type EurostatDatasetModel struct {
	DatasetCode  string    `gorm:"column:dataset_code;type:varchar(64);primaryKey"`
	ViewName     string    `gorm:"column:view_name;type:text;not null"`
	DatasetTitle string    `gorm:"column:dataset_title;type:text"`
	Description  string    `gorm:"column:description;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	LastUpdated  time.Time `gorm:"column:last_updated;not null"`
}

// TableName returns the table name for the model
func (EurostatDatasetModel) TableName() string {
	return "eurostat.eurostat_datasets"
}

// ToDomain converts the model to a domain dataset
func (m *EurostatDatasetModel) ToDomain() *eurostat.Dataset {
	return &eurostat.Dataset{
		Code:        m.DatasetCode,
		ViewName:    m.ViewName,
		Title:       m.DatasetTitle,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		LastUpdated: m.LastUpdated,
	}
}

// EurostatDatasetModelFromDomain creates a model from a domain dataset
func EurostatDatasetModelFromDomain(d *eurostat.Dataset) *EurostatDatasetModel {
	return &EurostatDatasetModel{
		DatasetCode:  d.Code,
		ViewName:     d.ViewName,
		DatasetTitle: d.Title,
		Description:  d.Description,
		CreatedAt:    d.CreatedAt,
		LastUpdated:  d.LastUpdated,
	}
}
