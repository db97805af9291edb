// Package models defines the data model of the extraction pipeline: source
// rows and batches on the wire side, and the GORM-backed cache row, run
// record and sync offset on the persistence side.
package models
