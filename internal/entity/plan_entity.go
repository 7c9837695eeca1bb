// FILE: internal/entity/plan_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StackingPolicy string

const (
	StackingExtend  StackingPolicy = "extend"
	StackingReplace StackingPolicy = "replace"
)

func (p StackingPolicy) IsValid() bool {
	return p == StackingExtend || p == StackingReplace
}

type PlanVariant struct {
	Days         int
	Price        decimal.Decimal
	DurationRank int // Display ordering among the plan's variants
}

// PlanFeatures are the visibility flags a plan unlocks for a listing.
type PlanFeatures struct {
	Home      bool
	Filter    bool
	Sponsored bool
	Highlight bool
}

type ContentLimit struct {
	Min int
	Max int // -1 = unlimited
}

type PlanDefinition struct {
	Id               uuid.UUID
	Code             string
	Name             string
	Description      string
	Level            int
	Variants         []PlanVariant
	Features         PlanFeatures
	ContentLimits    map[string]ContentLimit // keyed by media type (photo, video, ...)
	IncludedUpgrades []string
	StackingPolicy   StackingPolicy // empty = configured default
	IsActive         bool
	SortOrder        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Variant returns the variant priced for the given number of days.
func (p *PlanDefinition) Variant(days int) (PlanVariant, bool) {
	for _, v := range p.Variants {
		if v.Days == days {
			return v, true
		}
	}
	return PlanVariant{}, false
}
