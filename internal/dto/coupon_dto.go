package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCouponRequest struct {
	Code        string          `json:"code" validate:"required,max=64"`
	Type        string          `json:"type" validate:"required,oneof=percentage fixed_amount plan_assignment"`
	Value       decimal.Decimal `json:"value"`
	PlanCode    string          `json:"plan_code"`
	VariantDays int             `json:"variant_days" validate:"gte=0"`
	MaxUses     int             `json:"max_uses" validate:"gte=-1"` // -1 = unlimited
	ValidFrom   time.Time       `json:"valid_from" validate:"required"`
	ValidUntil  time.Time       `json:"valid_until" validate:"required"`
	IsActive    *bool           `json:"is_active"`
}

type UpdateCouponRequest struct {
	Value       *decimal.Decimal `json:"value"`
	PlanCode    *string          `json:"plan_code"`
	VariantDays *int             `json:"variant_days" validate:"omitempty,gte=0"`
	MaxUses     *int             `json:"max_uses" validate:"omitempty,gte=-1"`
	ValidFrom   *time.Time       `json:"valid_from"`
	ValidUntil  *time.Time       `json:"valid_until"`
	IsActive    *bool            `json:"is_active"`
}

type CouponResponse struct {
	Id          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	PlanCode    string          `json:"plan_code,omitempty"`
	VariantDays int             `json:"variant_days,omitempty"`
	MaxUses     int             `json:"max_uses"`
	CurrentUses int             `json:"current_uses"`
	ValidFrom   time.Time       `json:"valid_from"`
	ValidUntil  time.Time       `json:"valid_until"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CouponListRequest struct {
	Page   int   `query:"page"`
	Limit  int   `query:"limit"`
	Active *bool `query:"active"`
}

type ApplyCouponRequest struct {
	Code      string          `json:"code" validate:"required"`
	BasePrice decimal.Decimal `json:"base_price"`
	PlanCode  string          `json:"plan_code"`
}

type CouponApplicationResponse struct {
	Code                string          `json:"code"`
	Type                string          `json:"type"`
	BasePrice           decimal.Decimal `json:"base_price"`
	Discount            decimal.Decimal `json:"discount"`
	FinalPrice          decimal.Decimal `json:"final_price"`
	AssignedPlanCode    string          `json:"assigned_plan_code,omitempty"`
	AssignedVariantDays int             `json:"assigned_variant_days,omitempty"`
	Consumed            bool            `json:"consumed"`
}
