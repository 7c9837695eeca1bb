package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Shared ---

type ListRequest struct {
	Page            int    `query:"page"`
	Limit           int    `query:"limit"`
	Search          string `query:"search"`
	Level           *int   `query:"level"`
	Active          *bool  `query:"active"`
	IncludeInactive bool   `query:"include_inactive"`
}

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// --- Plans ---

type PlanVariantDTO struct {
	Days         int             `json:"days" validate:"required,gt=0"`
	Price        decimal.Decimal `json:"price"`
	DurationRank int             `json:"duration_rank"`
}

type PlanFeaturesDTO struct {
	Home      bool `json:"home"`
	Filter    bool `json:"filter"`
	Sponsored bool `json:"sponsored"`
	Highlight bool `json:"highlight"`
}

type ContentLimitDTO struct {
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gte=-1"` // -1 = unlimited
}

type CreatePlanRequest struct {
	Code             string                     `json:"code" validate:"required,max=100"`
	Name             string                     `json:"name" validate:"required,max=255"`
	Description      string                     `json:"description"`
	Level            int                        `json:"level" validate:"gte=0"`
	Variants         []PlanVariantDTO           `json:"variants" validate:"required,min=1,dive"`
	Features         PlanFeaturesDTO            `json:"features"`
	ContentLimits    map[string]ContentLimitDTO `json:"content_limits" validate:"omitempty,dive"`
	IncludedUpgrades []string                   `json:"included_upgrades"`
	StackingPolicy   string                     `json:"stacking_policy" validate:"omitempty,oneof=extend replace"`
	IsActive         *bool                      `json:"is_active"`
	SortOrder        int                        `json:"sort_order"`
}

type UpdatePlanRequest struct {
	Code             *string                    `json:"code" validate:"omitempty,min=1,max=100"`
	Name             *string                    `json:"name" validate:"omitempty,min=1,max=255"`
	Description      *string                    `json:"description"`
	Level            *int                       `json:"level" validate:"omitempty,gte=0"`
	Variants         []PlanVariantDTO           `json:"variants" validate:"omitempty,min=1,dive"`
	Features         *PlanFeaturesDTO           `json:"features"`
	ContentLimits    map[string]ContentLimitDTO `json:"content_limits" validate:"omitempty,dive"`
	IncludedUpgrades *[]string                  `json:"included_upgrades"`
	StackingPolicy   *string                    `json:"stacking_policy" validate:"omitempty,oneof=extend replace"`
	IsActive         *bool                      `json:"is_active"`
	SortOrder        *int                       `json:"sort_order"`
}

type PlanResponse struct {
	Id               uuid.UUID                  `json:"id"`
	Code             string                     `json:"code"`
	Name             string                     `json:"name"`
	Description      string                     `json:"description"`
	Level            int                        `json:"level"`
	Variants         []PlanVariantDTO           `json:"variants"`
	Features         PlanFeaturesDTO            `json:"features"`
	ContentLimits    map[string]ContentLimitDTO `json:"content_limits"`
	IncludedUpgrades []string                   `json:"included_upgrades"`
	StackingPolicy   string                     `json:"stacking_policy"`
	IsActive         bool                       `json:"is_active"`
	SortOrder        int                        `json:"sort_order"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// --- Upgrades ---

type CreateUpgradeRequest struct {
	Code           string          `json:"code" validate:"required,max=100"`
	Name           string          `json:"name" validate:"required,max=255"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	DurationHours  int             `json:"duration_hours" validate:"required,gt=0"`
	Requires       []string        `json:"requires"`
	StackingPolicy string          `json:"stacking_policy" validate:"required,oneof=extend replace"`
	Effect         json.RawMessage `json:"effect"`
	IsActive       *bool           `json:"is_active"`
}

type UpdateUpgradeRequest struct {
	Code           *string          `json:"code" validate:"omitempty,min=1,max=100"`
	Name           *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	DurationHours  *int             `json:"duration_hours" validate:"omitempty,gt=0"`
	Requires       *[]string        `json:"requires"`
	StackingPolicy *string          `json:"stacking_policy" validate:"omitempty,oneof=extend replace"`
	Effect         json.RawMessage  `json:"effect"`
	IsActive       *bool            `json:"is_active"`
}

type UpgradeResponse struct {
	Id             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	DurationHours  int             `json:"duration_hours"`
	Requires       []string        `json:"requires"`
	StackingPolicy string          `json:"stacking_policy"`
	Effect         json.RawMessage `json:"effect,omitempty"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
