package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/entitlement/dependency"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// UpgradeManager writes upgrade definitions. Every write checks the resulting
// prerequisite graph for cycles before it is persisted; callers hold
// GraphLockKey for the whole unit of work.
type UpgradeManager struct {
	resolver *dependency.Resolver
}

func NewUpgradeManager(resolver *dependency.Resolver) *UpgradeManager {
	return &UpgradeManager{resolver: resolver}
}

func (m *UpgradeManager) Create(ctx context.Context, uow unitofwork.UnitOfWork, req dto.CreateUpgradeRequest) (*entity.UpgradeDefinition, error) {
	upgrade := &entity.UpgradeDefinition{
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		DurationHours:  req.DurationHours,
		Requires:       lo.Uniq(req.Requires),
		StackingPolicy: entity.StackingPolicy(req.StackingPolicy),
		Effect:         req.Effect,
		IsActive:       true,
	}
	if req.IsActive != nil {
		upgrade.IsActive = *req.IsActive
	}

	existing, err := uow.UpgradeRepository().FindByCode(ctx, upgrade.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("upgrade", upgrade.Code, "code already exists")
	}
	if err := m.validate(ctx, uow, upgrade); err != nil {
		return nil, err
	}

	graph, err := m.resolver.Graph(ctx, uow)
	if err != nil {
		return nil, err
	}
	if err := graph.CheckWrite(upgrade.Code, upgrade.Requires); err != nil {
		return nil, err
	}
	if err := uow.UpgradeRepository().Create(ctx, upgrade); err != nil {
		return nil, err
	}
	return upgrade, nil
}

func (m *UpgradeManager) Update(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, req dto.UpdateUpgradeRequest) (*entity.UpgradeDefinition, error) {
	upgrade, err := m.GetById(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	oldCode := upgrade.Code

	if req.Code != nil {
		upgrade.Code = *req.Code
	}
	if req.Name != nil {
		upgrade.Name = *req.Name
	}
	if req.Description != nil {
		upgrade.Description = *req.Description
	}
	if req.Price != nil {
		upgrade.Price = *req.Price
	}
	if req.DurationHours != nil {
		upgrade.DurationHours = *req.DurationHours
	}
	if req.Requires != nil {
		upgrade.Requires = lo.Uniq(*req.Requires)
	}
	if req.StackingPolicy != nil {
		upgrade.StackingPolicy = entity.StackingPolicy(*req.StackingPolicy)
	}
	if req.Effect != nil {
		upgrade.Effect = req.Effect
	}
	if req.IsActive != nil {
		upgrade.IsActive = *req.IsActive
	}

	graph, err := m.resolver.Graph(ctx, uow)
	if err != nil {
		return nil, err
	}
	if upgrade.Code != oldCode {
		if err := m.ensureCodeMutable(ctx, uow, oldCode); err != nil {
			return nil, err
		}
		clash, err := uow.UpgradeRepository().FindByCode(ctx, upgrade.Code)
		if err != nil {
			return nil, err
		}
		if clash != nil {
			return nil, apperror.Conflict("upgrade", upgrade.Code, "code already exists")
		}
		graph = graph.Rename(oldCode, upgrade.Code)
	}
	if err := m.validate(ctx, uow, upgrade); err != nil {
		return nil, err
	}
	if err := graph.CheckWrite(upgrade.Code, upgrade.Requires); err != nil {
		return nil, err
	}
	if err := uow.UpgradeRepository().Update(ctx, upgrade); err != nil {
		return nil, err
	}
	return upgrade, nil
}

func (m *UpgradeManager) Delete(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) error {
	upgrade, err := m.GetById(ctx, uow, id)
	if err != nil {
		return err
	}

	pending, err := uow.InvoiceRepository().CountReferencing(ctx, entity.ItemTypeUpgrade, upgrade.Code, entity.InvoiceStatusPending)
	if err != nil {
		return err
	}
	if pending > 0 {
		return apperror.Conflict("upgrade", upgrade.Code, "referenced by pending invoices; deactivate it instead")
	}
	if err := m.ensureUnreferenced(ctx, uow, upgrade.Code); err != nil {
		return err
	}
	return uow.UpgradeRepository().Delete(ctx, upgrade.Id)
}

func (m *UpgradeManager) GetById(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.UpgradeDefinition, error) {
	upgrade, err := uow.UpgradeRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if upgrade == nil {
		return nil, apperror.NotFound("upgrade", id.String())
	}
	return upgrade, nil
}

func (m *UpgradeManager) GetByCode(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*entity.UpgradeDefinition, error) {
	upgrade, err := uow.UpgradeRepository().FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if upgrade == nil {
		return nil, apperror.NotFound("upgrade", code)
	}
	return upgrade, nil
}

func (m *UpgradeManager) List(ctx context.Context, uow unitofwork.UnitOfWork, req dto.ListRequest) ([]*entity.UpgradeDefinition, int64, error) {
	filter := toFilter(req)
	filter.Level = nil
	return uow.UpgradeRepository().FindAll(ctx, filter)
}

// ensureUnreferenced rejects changes that would orphan a requires or
// includedUpgrades entry.
func (m *UpgradeManager) ensureUnreferenced(ctx context.Context, uow unitofwork.UnitOfWork, code string) error {
	dependents, err := uow.UpgradeRepository().FindRequiring(ctx, code)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		codes := lo.Map(dependents, func(u *entity.UpgradeDefinition, _ int) string { return u.Code })
		return apperror.Conflict("upgrade", code, "required by "+strings.Join(codes, ", "))
	}
	plans, err := uow.PlanRepository().FindIncludingUpgrade(ctx, code)
	if err != nil {
		return err
	}
	if len(plans) > 0 {
		codes := lo.Map(plans, func(p *entity.PlanDefinition, _ int) string { return p.Code })
		return apperror.Conflict("upgrade", code, "included in plans "+strings.Join(codes, ", "))
	}
	return nil
}

func (m *UpgradeManager) ensureCodeMutable(ctx context.Context, uow unitofwork.UnitOfWork, code string) error {
	invoices, err := uow.InvoiceRepository().CountReferencing(ctx, entity.ItemTypeUpgrade, code)
	if err != nil {
		return err
	}
	if invoices > 0 {
		return apperror.Conflict("upgrade", code, "code is immutable once invoiced")
	}
	return m.ensureUnreferenced(ctx, uow, code)
}

func (m *UpgradeManager) validate(ctx context.Context, uow unitofwork.UnitOfWork, upgrade *entity.UpgradeDefinition) error {
	if upgrade.Code == "" {
		return apperror.Validation("code", "must not be empty")
	}
	if upgrade.DurationHours <= 0 {
		return apperror.Validation("duration_hours", "must be positive")
	}
	if upgrade.Price.IsNegative() {
		return apperror.Validation("price", "must not be negative")
	}
	if !upgrade.StackingPolicy.IsValid() {
		return apperror.Validation("stacking_policy", "must be extend or replace")
	}
	if len(upgrade.Effect) > 0 && !json.Valid(upgrade.Effect) {
		return apperror.Validation("effect", "must be valid JSON")
	}
	if lo.Contains(upgrade.Requires, upgrade.Code) {
		return &apperror.DependencyCycleError{Cycle: []string{upgrade.Code, upgrade.Code}}
	}
	if len(upgrade.Requires) > 0 {
		found, err := uow.UpgradeRepository().FindByCodes(ctx, upgrade.Requires)
		if err != nil {
			return err
		}
		known := lo.Map(found, func(u *entity.UpgradeDefinition, _ int) string { return u.Code })
		for _, code := range upgrade.Requires {
			if !lo.Contains(known, code) {
				return apperror.Validation("requires", "unknown upgrade "+code)
			}
		}
	}
	return nil
}
