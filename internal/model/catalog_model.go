package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PlanVariant struct {
	Days         int             `json:"days"`
	Price        decimal.Decimal `json:"price"`
	DurationRank int             `json:"duration_rank"`
}

type PlanFeatures struct {
	Home      bool `json:"home"`
	Filter    bool `json:"filter"`
	Sponsored bool `json:"sponsored"`
	Highlight bool `json:"highlight"`
}

type ContentLimit struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type Plan struct {
	Id               uuid.UUID                                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code             string                                      `gorm:"type:varchar(100);uniqueIndex;not null"`
	Name             string                                      `gorm:"type:varchar(255);not null"`
	Description      string                                      `gorm:"type:text"`
	Level            int                                         `gorm:"not null;index"`
	Variants         datatypes.JSONType[[]PlanVariant]           `gorm:"type:jsonb;not null"`
	Features         datatypes.JSONType[PlanFeatures]            `gorm:"type:jsonb"`
	ContentLimits    datatypes.JSONType[map[string]ContentLimit] `gorm:"type:jsonb"`
	IncludedUpgrades datatypes.JSONSlice[string]                 `gorm:"type:jsonb"`
	StackingPolicy   string                                      `gorm:"type:varchar(20)"`
	IsActive         bool                                        `gorm:"default:true;index"`
	SortOrder        int                                         `gorm:"default:0"`
	CreatedAt        time.Time                                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                                   `gorm:"autoUpdateTime"`
}

func (Plan) TableName() string {
	return "plans"
}

type Upgrade struct {
	Id             uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code           string                      `gorm:"type:varchar(100);uniqueIndex;not null"`
	Name           string                      `gorm:"type:varchar(255);not null"`
	Description    string                      `gorm:"type:text"`
	Price          decimal.Decimal             `gorm:"type:decimal(12,2);not null"`
	DurationHours  int                         `gorm:"not null"`
	Requires       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	StackingPolicy string                      `gorm:"type:varchar(20);not null;default:'extend'"`
	Effect         datatypes.JSON              `gorm:"type:jsonb"`
	IsActive       bool                        `gorm:"default:true;index"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime"`
}

func (Upgrade) TableName() string {
	return "upgrades"
}
