// FILE: internal/entity/upgrade_entity.go
package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UpgradeDefinition struct {
	Id             uuid.UUID
	Code           string
	Name           string
	Description    string
	Price          decimal.Decimal
	DurationHours  int
	Requires       []string
	StackingPolicy StackingPolicy
	Effect         json.RawMessage // Opaque to the engine, e.g. {"boost": 2}
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *UpgradeDefinition) Duration() time.Duration {
	return time.Duration(u.DurationHours) * time.Hour
}
