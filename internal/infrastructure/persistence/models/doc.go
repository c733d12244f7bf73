// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain types so the zakat domain stays free of ORM tags.
//
// Structure:
//   - asset.go: declared holdings loaded as calculation input
//   - calculation.go: recorded calculation results with a JSON snapshot
package models
