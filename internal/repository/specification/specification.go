package specification

import "gorm.io/gorm"

// Specification is a composable query fragment applied by gorm repositories.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Apply folds specs over db in order.
func Apply(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}
