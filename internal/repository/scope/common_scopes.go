package scope

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// CatalogOrder is the stable listing order for plans.
func CatalogOrder(db *gorm.DB) *gorm.DB {
	return db.Order("level ASC").Order("sort_order ASC").Order("code ASC")
}

func OrderByCode(db *gorm.DB) *gorm.DB {
	return db.Order("code ASC")
}

// LockForUpdate takes a row lock inside the current transaction.
func LockForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
