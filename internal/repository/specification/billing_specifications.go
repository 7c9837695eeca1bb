package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByProfile struct {
	ProfileID uuid.UUID
}

func (s ByProfile) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("profile_id = ?", s.ProfileID)
}

type ByStatuses struct {
	Statuses []string
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Statuses) == 0 {
		return db
	}
	return db.Where("status IN ?", s.Statuses)
}

// DueBy matches invoices whose payment window closed at or before At.
type DueBy struct {
	At time.Time
}

func (s DueBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at <= ?", s.At)
}
