package coupon

import (
	"context"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/contract"
	"listing-billing-be/internal/repository/unitofwork"

	"github.com/shopspring/decimal"
)

// Manager handles coupon catalog writes. It never touches current_uses.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Create(ctx context.Context, uow unitofwork.UnitOfWork, req dto.CreateCouponRequest) (*entity.Coupon, error) {
	c := &entity.Coupon{
		Code:        entity.NormalizeCouponCode(req.Code),
		Type:        entity.CouponType(req.Type),
		Value:       req.Value,
		PlanCode:    req.PlanCode,
		VariantDays: req.VariantDays,
		MaxUses:     req.MaxUses,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		IsActive:    true,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := m.validate(ctx, uow, c); err != nil {
		return nil, err
	}
	if err := uow.CouponRepository().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Manager) Update(ctx context.Context, uow unitofwork.UnitOfWork, code string, req dto.UpdateCouponRequest) (*entity.Coupon, error) {
	c, err := m.GetByCode(ctx, uow, code)
	if err != nil {
		return nil, err
	}

	if req.Value != nil {
		c.Value = *req.Value
	}
	if req.PlanCode != nil {
		c.PlanCode = *req.PlanCode
	}
	if req.VariantDays != nil {
		c.VariantDays = *req.VariantDays
	}
	if req.MaxUses != nil {
		c.MaxUses = *req.MaxUses
	}
	if req.ValidFrom != nil {
		c.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		c.ValidUntil = *req.ValidUntil
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := m.validate(ctx, uow, c); err != nil {
		return nil, err
	}
	if c.MaxUses != entity.UnlimitedUses && c.MaxUses < c.CurrentUses {
		return nil, apperror.Validation("max_uses", "cannot be lower than uses already consumed")
	}
	if err := uow.CouponRepository().Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Manager) Deactivate(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*entity.Coupon, error) {
	inactive := false
	return m.Update(ctx, uow, code, dto.UpdateCouponRequest{IsActive: &inactive})
}

func (m *Manager) GetByCode(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*entity.Coupon, error) {
	c, err := uow.CouponRepository().FindByCode(ctx, entity.NormalizeCouponCode(code))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NotFound("coupon", code)
	}
	return c, nil
}

func (m *Manager) List(ctx context.Context, uow unitofwork.UnitOfWork, req dto.CouponListRequest) ([]*entity.Coupon, int64, error) {
	page, limit := normalizePage(req.Page, req.Limit)
	return uow.CouponRepository().FindAll(ctx, contract.CouponFilter{
		Active: req.Active,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
}

func (m *Manager) validate(ctx context.Context, uow unitofwork.UnitOfWork, c *entity.Coupon) error {
	if c.Code == "" {
		return apperror.Validation("code", "must not be empty")
	}
	if c.MaxUses < entity.UnlimitedUses {
		return apperror.Validation("max_uses", "must be -1 (unlimited) or at least 0")
	}
	if c.ValidUntil.Before(c.ValidFrom) {
		return apperror.Validation("valid_until", "must not be before valid_from")
	}

	switch c.Type {
	case entity.CouponTypePercentage:
		if c.Value.IsNegative() || c.Value.GreaterThan(hundred) {
			return apperror.Validation("value", "percentage must be within 0 and 100")
		}
	case entity.CouponTypeFixedAmount:
		if c.Value.IsNegative() {
			return apperror.Validation("value", "amount must not be negative")
		}
	case entity.CouponTypePlanAssignment:
		if c.PlanCode == "" || c.VariantDays <= 0 {
			return apperror.Validation("plan_code", "plan assignment needs plan_code and variant_days")
		}
		plan, err := uow.PlanRepository().FindByCode(ctx, c.PlanCode)
		if err != nil {
			return err
		}
		if plan == nil {
			return apperror.Validation("plan_code", "assigned plan does not exist")
		}
		if _, ok := plan.Variant(c.VariantDays); !ok {
			return apperror.Validation("variant_days", "assigned plan has no such variant")
		}
		c.Value = decimal.Zero
	default:
		return apperror.Validation("type", "unknown coupon type")
	}

	if c.Type != entity.CouponTypePlanAssignment && c.PlanCode != "" {
		plan, err := uow.PlanRepository().FindByCode(ctx, c.PlanCode)
		if err != nil {
			return err
		}
		if plan == nil {
			return apperror.Validation("plan_code", "restricted plan does not exist")
		}
	}
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
