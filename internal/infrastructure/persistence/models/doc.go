// Package models contains the GORM models of the metadata tables created by
// the migrations: the Eurostat download log, view catalogue and tracked
// datasets, and the ISTAT structural metadata.
//
// Dataset and codelist tables are not modelled here. Their columns depend
// on the downloaded file and they are written through the warehouse.
package models
