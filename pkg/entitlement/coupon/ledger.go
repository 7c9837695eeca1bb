// Package coupon validates coupons, prices them and owns the use counter.
package coupon

import (
	"context"
	"fmt"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/unitofwork"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplicationResult is the priced outcome of a coupon against a base price.
// AssignedPlan and AssignedVariant are set only for plan assignment coupons.
type ApplicationResult struct {
	Coupon          *entity.Coupon
	BasePrice       decimal.Decimal
	Discount        decimal.Decimal
	FinalPrice      decimal.Decimal
	AssignedPlan    *entity.PlanDefinition
	AssignedVariant *entity.PlanVariant
	Consumed        bool
}

type Ledger struct {
	now func() time.Time
}

func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// Apply validates and prices the coupon, then consumes one use with a single
// conditional write. Validation failures leave the counter untouched.
func (l *Ledger) Apply(ctx context.Context, uow unitofwork.UnitOfWork, code string, basePrice decimal.Decimal, requestedPlanCode string) (*ApplicationResult, error) {
	result, err := l.Quote(ctx, uow, code, basePrice, requestedPlanCode)
	if err != nil {
		return nil, err
	}

	ok, err := uow.CouponRepository().TryConsume(ctx, result.Coupon.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.CouponInvalid(result.Coupon.Code, apperror.CouponExhausted, "no uses left")
	}
	result.Coupon.CurrentUses++
	result.Consumed = true
	return result, nil
}

// Quote runs the same checks and pricing as Apply without consuming a use.
func (l *Ledger) Quote(ctx context.Context, uow unitofwork.UnitOfWork, code string, basePrice decimal.Decimal, requestedPlanCode string) (*ApplicationResult, error) {
	normalized := entity.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, apperror.Validation("coupon_code", "must not be empty")
	}
	if basePrice.IsNegative() {
		return nil, apperror.Validation("base_price", "must not be negative")
	}

	c, err := uow.CouponRepository().FindByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if err := l.check(c, normalized); err != nil {
		return nil, err
	}
	return l.price(ctx, uow, c, basePrice, requestedPlanCode)
}

// Release gives back one use consumed by Apply.
func (l *Ledger) Release(ctx context.Context, uow unitofwork.UnitOfWork, code string) error {
	return uow.CouponRepository().Release(ctx, entity.NormalizeCouponCode(code))
}

// check applies the validation order: existence and active flag, validity
// window, remaining uses.
func (l *Ledger) check(c *entity.Coupon, code string) error {
	if c == nil {
		return apperror.CouponInvalid(code, apperror.CouponNotFound, "")
	}
	if !c.IsActive {
		return apperror.CouponInvalid(c.Code, apperror.CouponInactive, "")
	}
	now := l.now()
	if now.Before(c.ValidFrom) {
		return apperror.CouponInvalid(c.Code, apperror.CouponExpired, fmt.Sprintf("not valid before %s", c.ValidFrom.Format(time.RFC3339)))
	}
	if now.After(c.ValidUntil) {
		return apperror.CouponInvalid(c.Code, apperror.CouponExpired, fmt.Sprintf("expired at %s", c.ValidUntil.Format(time.RFC3339)))
	}
	if !c.HasUsesLeft() {
		return apperror.CouponInvalid(c.Code, apperror.CouponExhausted, "no uses left")
	}
	return nil
}

func (l *Ledger) price(ctx context.Context, uow unitofwork.UnitOfWork, c *entity.Coupon, base decimal.Decimal, requestedPlanCode string) (*ApplicationResult, error) {
	rule, err := c.Rule()
	if err != nil {
		return nil, err
	}
	result := &ApplicationResult{Coupon: c, BasePrice: base}

	switch r := rule.(type) {
	case entity.PercentageDiscount:
		if err := restrictPlan(c, requestedPlanCode); err != nil {
			return nil, err
		}
		result.Discount = clamp(base.Mul(r.Percent).Div(hundred).Round(2), base)
	case entity.FixedAmountDiscount:
		if err := restrictPlan(c, requestedPlanCode); err != nil {
			return nil, err
		}
		result.Discount = clamp(r.Amount.Round(2), base)
	case entity.PlanAssignment:
		plan, variant, err := assignedVariant(ctx, uow, c, r)
		if err != nil {
			return nil, err
		}
		result.AssignedPlan = plan
		result.AssignedVariant = variant
		result.FinalPrice = variant.Price
		if base.IsPositive() {
			result.Discount = decimal.Max(base.Sub(variant.Price), decimal.Zero)
		} else {
			result.Discount = decimal.Zero
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unhandled pricing rule %T", rule)
	}

	result.FinalPrice = base.Sub(result.Discount)
	return result, nil
}

// restrictPlan enforces the optional plan restriction of discount coupons.
func restrictPlan(c *entity.Coupon, requestedPlanCode string) error {
	if c.PlanCode == "" || c.PlanCode == requestedPlanCode {
		return nil
	}
	return apperror.CouponInvalid(c.Code, apperror.CouponPlanMismatch, fmt.Sprintf("only valid for plan %s", c.PlanCode))
}

func assignedVariant(ctx context.Context, uow unitofwork.UnitOfWork, c *entity.Coupon, r entity.PlanAssignment) (*entity.PlanDefinition, *entity.PlanVariant, error) {
	plan, err := uow.PlanRepository().FindByCode(ctx, r.PlanCode)
	if err != nil {
		return nil, nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, nil, apperror.CouponInvalid(c.Code, apperror.CouponPlanMismatch, fmt.Sprintf("assigned plan %s is not available", r.PlanCode))
	}
	variant, ok := plan.Variant(r.VariantDays)
	if !ok {
		return nil, nil, apperror.CouponInvalid(c.Code, apperror.CouponPlanMismatch, fmt.Sprintf("plan %s has no %d day variant", r.PlanCode, r.VariantDays))
	}
	return plan, &variant, nil
}

// clamp bounds a discount to [0, base].
func clamp(discount, base decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, base)
}
