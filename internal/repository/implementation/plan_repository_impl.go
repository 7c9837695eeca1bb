package implementation

import (
	"context"
	"errors"

	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/mapper"
	"listing-billing-be/internal/model"
	"listing-billing-be/internal/repository/contract"
	"listing-billing-be/internal/repository/scope"
	"listing-billing-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewPlanRepository(db *gorm.DB) contract.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *entity.PlanDefinition) error {
	m := r.mapper.PlanToModel(plan)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return classify(err, "plan", plan.Code, "create plan")
	}
	*plan = *r.mapper.PlanToEntity(m)
	return nil
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *entity.PlanDefinition) error {
	m := r.mapper.PlanToModel(plan)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return classify(err, "plan", plan.Code, "update plan")
	}
	*plan = *r.mapper.PlanToEntity(m)
	return nil
}

func (r *PlanRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&model.Plan{}, id).Error
	return classify(err, "plan", id.String(), "delete plan")
}

func (r *PlanRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.PlanDefinition, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *PlanRepositoryImpl) FindByCode(ctx context.Context, code string) (*entity.PlanDefinition, error) {
	return r.findOne(ctx, specification.ByCode{Code: code})
}

func (r *PlanRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.PlanDefinition, error) {
	var m model.Plan
	query := specification.Apply(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err, "plan", "", "find plan")
	}
	return r.mapper.PlanToEntity(&m), nil
}

func (r *PlanRepositoryImpl) FindAll(ctx context.Context, filter contract.CatalogFilter) ([]*entity.PlanDefinition, int64, error) {
	specs := catalogSpecs(filter)
	if filter.Level != nil {
		specs = append(specs, specification.ByLevel{Level: *filter.Level})
	}

	var total int64
	base := specification.Apply(r.db.WithContext(ctx).Model(&model.Plan{}), specs...)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "plan", "", "count plans")
	}

	var models []*model.Plan
	query := specification.Apply(r.db.WithContext(ctx), specs...).
		Scopes(scope.CatalogOrder)
	query = specification.Pagination{Limit: filter.Limit, Offset: filter.Offset}.Apply(query)
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, classify(err, "plan", "", "list plans")
	}

	entities := make([]*entity.PlanDefinition, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PlanToEntity(m)
	}
	return entities, total, nil
}

func (r *PlanRepositoryImpl) FindIncludingUpgrade(ctx context.Context, upgradeCode string) ([]*entity.PlanDefinition, error) {
	var models []*model.Plan
	query := specification.JSONContains{Column: "included_upgrades", Value: []string{upgradeCode}}.
		Apply(r.db.WithContext(ctx))
	if err := query.Find(&models).Error; err != nil {
		return nil, classify(err, "plan", upgradeCode, "find plans including upgrade")
	}
	entities := make([]*entity.PlanDefinition, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PlanToEntity(m)
	}
	return entities, nil
}

// catalogSpecs applies the shared active/search rules of CatalogFilter.
func catalogSpecs(filter contract.CatalogFilter) []specification.Specification {
	var specs []specification.Specification
	switch {
	case filter.Active != nil:
		specs = append(specs, specification.ByActive{Active: *filter.Active})
	case !filter.IncludeInactive:
		specs = append(specs, specification.ByActive{Active: true})
	}
	if filter.Search != "" {
		specs = append(specs, specification.NameSearch{Term: filter.Search})
	}
	return specs
}
