// Package catalog owns plan and upgrade definitions and the rules that keep
// them consistent with invoices, coupons and each other.
package catalog

import (
	"context"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/contract"
	"listing-billing-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// GraphLockKey serializes every write that can change the upgrade graph or
// the references into it.
const GraphLockKey = "upgrade-graph"

type PlanManager struct{}

func NewPlanManager() *PlanManager {
	return &PlanManager{}
}

func (m *PlanManager) Create(ctx context.Context, uow unitofwork.UnitOfWork, req dto.CreatePlanRequest) (*entity.PlanDefinition, error) {
	plan := &entity.PlanDefinition{
		Code:             req.Code,
		Name:             req.Name,
		Description:      req.Description,
		Level:            req.Level,
		Variants:         variantsFromDTO(req.Variants),
		Features:         entity.PlanFeatures(req.Features),
		ContentLimits:    limitsFromDTO(req.ContentLimits),
		IncludedUpgrades: lo.Uniq(req.IncludedUpgrades),
		StackingPolicy:   entity.StackingPolicy(req.StackingPolicy),
		IsActive:         true,
		SortOrder:        req.SortOrder,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := m.validate(ctx, uow, plan); err != nil {
		return nil, err
	}
	existing, err := uow.PlanRepository().FindByCode(ctx, plan.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("plan", plan.Code, "code already exists")
	}
	if err := uow.PlanRepository().Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (m *PlanManager) Update(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, req dto.UpdatePlanRequest) (*entity.PlanDefinition, error) {
	plan, err := m.GetById(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	oldCode := plan.Code

	if req.Code != nil {
		plan.Code = *req.Code
	}
	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Level != nil {
		plan.Level = *req.Level
	}
	if req.Variants != nil {
		plan.Variants = variantsFromDTO(req.Variants)
	}
	if req.Features != nil {
		plan.Features = entity.PlanFeatures(*req.Features)
	}
	if req.ContentLimits != nil {
		plan.ContentLimits = limitsFromDTO(req.ContentLimits)
	}
	if req.IncludedUpgrades != nil {
		plan.IncludedUpgrades = lo.Uniq(*req.IncludedUpgrades)
	}
	if req.StackingPolicy != nil {
		plan.StackingPolicy = entity.StackingPolicy(*req.StackingPolicy)
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		plan.SortOrder = *req.SortOrder
	}

	if plan.Code != oldCode {
		if err := m.ensureCodeMutable(ctx, uow, oldCode); err != nil {
			return nil, err
		}
		clash, err := uow.PlanRepository().FindByCode(ctx, plan.Code)
		if err != nil {
			return nil, err
		}
		if clash != nil {
			return nil, apperror.Conflict("plan", plan.Code, "code already exists")
		}
	}
	if err := m.validate(ctx, uow, plan); err != nil {
		return nil, err
	}
	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes a plan nothing live refers to.
func (m *PlanManager) Delete(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) error {
	plan, err := m.GetById(ctx, uow, id)
	if err != nil {
		return err
	}

	pending, err := uow.InvoiceRepository().CountReferencing(ctx, entity.ItemTypePlan, plan.Code, entity.InvoiceStatusPending)
	if err != nil {
		return err
	}
	if pending > 0 {
		return apperror.Conflict("plan", plan.Code, "referenced by pending invoices; deactivate it instead")
	}
	coupons, err := uow.CouponRepository().CountAssigningPlan(ctx, plan.Code)
	if err != nil {
		return err
	}
	if coupons > 0 {
		return apperror.Conflict("plan", plan.Code, "assigned by plan_assignment coupons")
	}
	return uow.PlanRepository().Delete(ctx, plan.Id)
}

func (m *PlanManager) GetById(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.PlanDefinition, error) {
	plan, err := uow.PlanRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperror.NotFound("plan", id.String())
	}
	return plan, nil
}

func (m *PlanManager) GetByCode(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*entity.PlanDefinition, error) {
	plan, err := uow.PlanRepository().FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperror.NotFound("plan", code)
	}
	return plan, nil
}

// GetByLevel lists plans of one level, active ones only unless includeInactive.
func (m *PlanManager) GetByLevel(ctx context.Context, uow unitofwork.UnitOfWork, level int, includeInactive bool) ([]*entity.PlanDefinition, error) {
	plans, _, err := uow.PlanRepository().FindAll(ctx, contract.CatalogFilter{
		Level:           &level,
		IncludeInactive: includeInactive,
	})
	return plans, err
}

func (m *PlanManager) List(ctx context.Context, uow unitofwork.UnitOfWork, req dto.ListRequest) ([]*entity.PlanDefinition, int64, error) {
	return uow.PlanRepository().FindAll(ctx, toFilter(req))
}

// ensureCodeMutable rejects renaming a code that invoices or coupons carry.
func (m *PlanManager) ensureCodeMutable(ctx context.Context, uow unitofwork.UnitOfWork, code string) error {
	invoices, err := uow.InvoiceRepository().CountReferencing(ctx, entity.ItemTypePlan, code)
	if err != nil {
		return err
	}
	if invoices > 0 {
		return apperror.Conflict("plan", code, "code is immutable once invoiced")
	}
	coupons, err := uow.CouponRepository().CountAssigningPlan(ctx, code)
	if err != nil {
		return err
	}
	if coupons > 0 {
		return apperror.Conflict("plan", code, "code is used by plan_assignment coupons")
	}
	return nil
}

func (m *PlanManager) validate(ctx context.Context, uow unitofwork.UnitOfWork, plan *entity.PlanDefinition) error {
	if plan.Code == "" {
		return apperror.Validation("code", "must not be empty")
	}
	if len(plan.Variants) == 0 {
		return apperror.Validation("variants", "at least one variant is required")
	}
	seen := map[int]bool{}
	for _, v := range plan.Variants {
		if v.Days <= 0 {
			return apperror.Validation("variants", "days must be positive")
		}
		if v.Price.IsNegative() {
			return apperror.Validation("variants", "price must not be negative")
		}
		if seen[v.Days] {
			return apperror.Validation("variants", "days must be unique within a plan")
		}
		seen[v.Days] = true
	}
	for media, limit := range plan.ContentLimits {
		if limit.Min < 0 || (limit.Max != -1 && limit.Max < limit.Min) {
			return apperror.Validation("content_limits", "invalid range for "+media)
		}
	}
	if plan.StackingPolicy != "" && !plan.StackingPolicy.IsValid() {
		return apperror.Validation("stacking_policy", "must be extend or replace")
	}
	if len(plan.IncludedUpgrades) > 0 {
		found, err := uow.UpgradeRepository().FindByCodes(ctx, plan.IncludedUpgrades)
		if err != nil {
			return err
		}
		known := lo.Map(found, func(u *entity.UpgradeDefinition, _ int) string { return u.Code })
		for _, code := range plan.IncludedUpgrades {
			if !lo.Contains(known, code) {
				return apperror.Validation("included_upgrades", "unknown upgrade "+code)
			}
		}
	}
	return nil
}

func variantsFromDTO(in []dto.PlanVariantDTO) []entity.PlanVariant {
	return lo.Map(in, func(v dto.PlanVariantDTO, _ int) entity.PlanVariant {
		return entity.PlanVariant{Days: v.Days, Price: v.Price, DurationRank: v.DurationRank}
	})
}

func limitsFromDTO(in map[string]dto.ContentLimitDTO) map[string]entity.ContentLimit {
	out := make(map[string]entity.ContentLimit, len(in))
	for k, v := range in {
		out[k] = entity.ContentLimit(v)
	}
	return out
}

func toFilter(req dto.ListRequest) contract.CatalogFilter {
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return contract.CatalogFilter{
		Active:          req.Active,
		IncludeInactive: req.IncludeInactive,
		Level:           req.Level,
		Search:          req.Search,
		Limit:           limit,
		Offset:          (page - 1) * limit,
	}
}
