// FILE: internal/entity/coupon_entity.go
package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypePercentage     CouponType = "percentage"
	CouponTypeFixedAmount    CouponType = "fixed_amount"
	CouponTypePlanAssignment CouponType = "plan_assignment"
)

const UnlimitedUses = -1

type Coupon struct {
	Id          uuid.UUID
	Code        string
	Type        CouponType
	Value       decimal.Decimal
	PlanCode    string // Target plan for plan_assignment, optional restriction otherwise
	VariantDays int
	MaxUses     int
	CurrentUses int
	ValidFrom   time.Time
	ValidUntil  time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeCouponCode is the canonical form codes are stored and looked up in.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) HasUsesLeft() bool {
	return c.MaxUses == UnlimitedUses || c.CurrentUses < c.MaxUses
}

func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidUntil)
}

// PricingRule is the closed set of coupon shapes. Implementations live in this
// file only; a pricing switch over PricingRule must handle each of them.
type PricingRule interface {
	pricingRule()
}

type PercentageDiscount struct {
	Percent decimal.Decimal
}

type FixedAmountDiscount struct {
	Amount decimal.Decimal
}

type PlanAssignment struct {
	PlanCode    string
	VariantDays int
}

func (PercentageDiscount) pricingRule()  {}
func (FixedAmountDiscount) pricingRule() {}
func (PlanAssignment) pricingRule()      {}

// Rule converts the stored type/value columns into a pricing variant.
func (c *Coupon) Rule() (PricingRule, error) {
	switch c.Type {
	case CouponTypePercentage:
		return PercentageDiscount{Percent: c.Value}, nil
	case CouponTypeFixedAmount:
		return FixedAmountDiscount{Amount: c.Value}, nil
	case CouponTypePlanAssignment:
		return PlanAssignment{PlanCode: c.PlanCode, VariantDays: c.VariantDays}, nil
	default:
		return nil, fmt.Errorf("unknown coupon type %q", c.Type)
	}
}
