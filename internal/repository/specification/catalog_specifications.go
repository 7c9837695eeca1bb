package specification

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type ByCode struct {
	Code string
}

func (s ByCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("code = ?", s.Code)
}

type ByCodes struct {
	Codes []string
}

func (s ByCodes) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("code IN ?", s.Codes)
}

type ByActive struct {
	Active bool
}

func (s ByActive) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", s.Active)
}

type ByLevel struct {
	Level int
}

func (s ByLevel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("level = ?", s.Level)
}

// NameSearch matches code or name case-insensitively.
type NameSearch struct {
	Term string
}

func (s NameSearch) Apply(db *gorm.DB) *gorm.DB {
	like := "%" + strings.ToLower(s.Term) + "%"
	return db.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
}

// JSONContains applies the Postgres jsonb containment operator.
type JSONContains struct {
	Column string
	Value  interface{}
}

func (s JSONContains) Apply(db *gorm.DB) *gorm.DB {
	raw, err := json.Marshal(s.Value)
	if err != nil {
		_ = db.AddError(err)
		return db
	}
	return db.Where(fmt.Sprintf("%s @> ?::jsonb", s.Column), string(raw))
}
