package service

import (
	"context"

	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/entitlement/catalog"
	"listing-billing-be/pkg/entitlement/dependency"
	"listing-billing-be/pkg/events"
	"listing-billing-be/pkg/lock"

	"github.com/google/uuid"
)

type ICatalogService interface {
	// Public
	ListPlans(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.PlanResponse], error)
	ListPlansByLevel(ctx context.Context, level int) ([]*dto.PlanResponse, error)
	GetPlan(ctx context.Context, code string) (*dto.PlanResponse, error)
	ListUpgrades(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.UpgradeResponse], error)
	GetUpgrade(ctx context.Context, code string) (*dto.UpgradeResponse, error)
	GetUpgradeTree(ctx context.Context, code string) (*dependency.Node, error)
	ValidateUpgrade(ctx context.Context, code string) (*dependency.Report, error)
	GetPlanUpgradeReport(ctx context.Context, code string) (*dependency.PlanReport, error)

	// Admin
	AdminListPlans(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.PlanResponse], error)
	AdminGetPlan(ctx context.Context, id uuid.UUID) (*dto.PlanResponse, error)
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	AdminListUpgrades(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.UpgradeResponse], error)
	AdminGetUpgrade(ctx context.Context, id uuid.UUID) (*dto.UpgradeResponse, error)
	CreateUpgrade(ctx context.Context, req dto.CreateUpgradeRequest) (*dto.UpgradeResponse, error)
	UpdateUpgrade(ctx context.Context, id uuid.UUID, req dto.UpdateUpgradeRequest) (*dto.UpgradeResponse, error)
	DeleteUpgrade(ctx context.Context, id uuid.UUID) error
	CheckGraph(ctx context.Context) ([]string, error)
}

type catalogService struct {
	uowFactory unitofwork.RepositoryFactory
	plans      *catalog.PlanManager
	upgrades   *catalog.UpgradeManager
	resolver   *dependency.Resolver
	reader     *catalog.CachedReader
	locker     lock.Locker
	publisher  events.Publisher
	logger     logger.ILogger
}

func NewCatalogService(
	uowFactory unitofwork.RepositoryFactory,
	plans *catalog.PlanManager,
	upgrades *catalog.UpgradeManager,
	resolver *dependency.Resolver,
	reader *catalog.CachedReader,
	locker lock.Locker,
	publisher events.Publisher,
	logger logger.ILogger,
) ICatalogService {
	return &catalogService{
		uowFactory: uowFactory,
		plans:      plans,
		upgrades:   upgrades,
		resolver:   resolver,
		reader:     reader,
		locker:     locker,
		publisher:  publisher,
		logger:     logger,
	}
}

// publicList pins the filter to active records regardless of what was asked.
func publicList(req dto.ListRequest) dto.ListRequest {
	req.Active = nil
	req.IncludeInactive = false
	return req
}

func (s *catalogService) ListPlans(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.PlanResponse], error) {
	return s.AdminListPlans(ctx, publicList(req))
}

func (s *catalogService) ListPlansByLevel(ctx context.Context, level int) ([]*dto.PlanResponse, error) {
	plans, err := s.plans.GetByLevel(ctx, s.uowFactory.NewUnitOfWork(ctx), level, false)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	return out, nil
}

func (s *catalogService) GetPlan(ctx context.Context, code string) (*dto.PlanResponse, error) {
	plan, err := s.reader.PlanByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

func (s *catalogService) ListUpgrades(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.UpgradeResponse], error) {
	return s.AdminListUpgrades(ctx, publicList(req))
}

func (s *catalogService) GetUpgrade(ctx context.Context, code string) (*dto.UpgradeResponse, error) {
	upgrade, err := s.reader.UpgradeByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return toUpgradeResponse(upgrade), nil
}

func (s *catalogService) GetUpgradeTree(ctx context.Context, code string) (*dependency.Node, error) {
	return s.reader.UpgradeTree(ctx, code)
}

func (s *catalogService) ValidateUpgrade(ctx context.Context, code string) (*dependency.Report, error) {
	return s.resolver.Validate(ctx, s.uowFactory.NewUnitOfWork(ctx), code)
}

func (s *catalogService) GetPlanUpgradeReport(ctx context.Context, code string) (*dependency.PlanReport, error) {
	return s.resolver.ValidatePlanUpgrades(ctx, s.uowFactory.NewUnitOfWork(ctx), code)
}

func (s *catalogService) AdminListPlans(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.PlanResponse], error) {
	plans, total, err := s.plans.List(ctx, s.uowFactory.NewUnitOfWork(ctx), req)
	if err != nil {
		return nil, err
	}
	page, limit := pageOf(req.Page, req.Limit)
	return listResponse(plans, total, page, limit, toPlanResponse), nil
}

func (s *catalogService) AdminGetPlan(ctx context.Context, id uuid.UUID) (*dto.PlanResponse, error) {
	plan, err := s.plans.GetById(ctx, s.uowFactory.NewUnitOfWork(ctx), id)
	if err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

func (s *catalogService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	var plan *entity.PlanDefinition
	err := s.write(ctx, func(uow unitofwork.UnitOfWork) (err error) {
		plan, err = s.plans.Create(ctx, uow, req)
		return err
	})
	if err != nil {
		logFailure(s.logger, "CATALOG", "Failed to create plan", err, map[string]interface{}{"code": req.Code})
		return nil, err
	}
	s.changed(ctx, "plan", plan.Code, "created")
	return toPlanResponse(plan), nil
}

func (s *catalogService) UpdatePlan(ctx context.Context, id uuid.UUID, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	var plan *entity.PlanDefinition
	err := s.write(ctx, func(uow unitofwork.UnitOfWork) (err error) {
		plan, err = s.plans.Update(ctx, uow, id, req)
		return err
	})
	if err != nil {
		logFailure(s.logger, "CATALOG", "Failed to update plan", err, map[string]interface{}{"plan_id": id.String()})
		return nil, err
	}
	s.changed(ctx, "plan", plan.Code, "updated")
	return toPlanResponse(plan), nil
}

func (s *catalogService) DeletePlan(ctx context.Context, id uuid.UUID) error {
	var code string
	err := s.write(ctx, func(uow unitofwork.UnitOfWork) error {
		plan, err := s.plans.GetById(ctx, uow, id)
		if err != nil {
			return err
		}
		code = plan.Code
		return s.plans.Delete(ctx, uow, id)
	})
	if err != nil {
		logFailure(s.logger, "CATALOG", "Failed to delete plan", err, map[string]interface{}{"plan_id": id.String()})
		return err
	}
	s.changed(ctx, "plan", code, "deleted")
	return nil
}

func (s *catalogService) AdminListUpgrades(ctx context.Context, req dto.ListRequest) (*dto.ListResponse[dto.UpgradeResponse], error) {
	upgrades, total, err := s.upgrades.List(ctx, s.uowFactory.NewUnitOfWork(ctx), req)
	if err != nil {
		return nil, err
	}
	page, limit := pageOf(req.Page, req.Limit)
	return listResponse(upgrades, total, page, limit, toUpgradeResponse), nil
}

func (s *catalogService) AdminGetUpgrade(ctx context.Context, id uuid.UUID) (*dto.UpgradeResponse, error) {
	upgrade, err := s.upgrades.GetById(ctx, s.uowFactory.NewUnitOfWork(ctx), id)
	if err != nil {
		return nil, err
	}
	return toUpgradeResponse(upgrade), nil
}

func (s *catalogService) CreateUpgrade(ctx context.Context, req dto.CreateUpgradeRequest) (*dto.UpgradeResponse, error) {
	var upgrade *entity.UpgradeDefinition
	err := s.write(ctx, func(uow unitofwork.UnitOfWork) (err error) {
		upgrade, err = s.upgrades.Create(ctx, uow, req)
		return err
	})
	if err != nil {
		logFailure(s.logger, "CATALOG", "Failed to create upgrade", err, map[string]interface{}{"code": req.Code})
		return nil, err
	}
	s.changed(ctx, "upgrade", upgrade.Code, "created")
	return toUpgradeResponse(upgrade), nil
}

func (s *catalogService) UpdateUpgrade(ctx context.Context, id uuid.UUID, req dto.UpdateUpgradeRequest) (*dto.UpgradeResponse, error) {
	var upgrade *entity.UpgradeDefinition
	err := s.write(ctx, func(uow unitofwork.UnitOfWork) (err error) {
		upgrade, err = s.upgrades.Update(ctx, uow, id, req)
		return err
	})
	if err != nil {
		logFailure(s.logger, "CATALOG", "Failed to update upgrade", err, map[string]interface{}{"upgrade_id": id.String()})
		return nil, err
	}
	s.changed(ctx, "upgrade", upgrade.Code, "updated")
	return toUpgradeResponse(upgrade), nil
}

func (s *catalogService) DeleteUpgrade(ctx context.Context, id uuid.UUID) error {
	var code string
	err := s.write(ctx, func(uow unitofwork.UnitOfWork) error {
		upgrade, err := s.upgrades.GetById(ctx, uow, id)
		if err != nil {
			return err
		}
		code = upgrade.Code
		return s.upgrades.Delete(ctx, uow, id)
	})
	if err != nil {
		logFailure(s.logger, "CATALOG", "Failed to delete upgrade", err, map[string]interface{}{"upgrade_id": id.String()})
		return err
	}
	s.changed(ctx, "upgrade", code, "deleted")
	return nil
}

func (s *catalogService) CheckGraph(ctx context.Context) ([]string, error) {
	order, err := s.resolver.CheckGraph(ctx, s.uowFactory.NewUnitOfWork(ctx))
	if err != nil {
		s.logger.Error("CATALOG", "Stored upgrade graph is not acyclic", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return order, nil
}

// write serializes every catalog mutation on the graph lock. Plans take it too
// because their included upgrades are edges into the same graph.
func (s *catalogService) write(ctx context.Context, fn func(uow unitofwork.UnitOfWork) error) error {
	return inTx(ctx, s.uowFactory, s.locker, catalog.GraphLockKey, fn)
}

func (s *catalogService) changed(ctx context.Context, resource, code, action string) {
	s.reader.Invalidate()
	s.logger.Info("CATALOG", "Catalog "+resource+" "+action, map[string]interface{}{"code": code})
	s.publisher.PublishCatalogChanged(ctx, resource, code, action)
}
