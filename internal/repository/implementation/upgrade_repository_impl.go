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

type UpgradeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewUpgradeRepository(db *gorm.DB) contract.UpgradeRepository {
	return &UpgradeRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *UpgradeRepositoryImpl) Create(ctx context.Context, upgrade *entity.UpgradeDefinition) error {
	m := r.mapper.UpgradeToModel(upgrade)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return classify(err, "upgrade", upgrade.Code, "create upgrade")
	}
	*upgrade = *r.mapper.UpgradeToEntity(m)
	return nil
}

func (r *UpgradeRepositoryImpl) Update(ctx context.Context, upgrade *entity.UpgradeDefinition) error {
	m := r.mapper.UpgradeToModel(upgrade)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return classify(err, "upgrade", upgrade.Code, "update upgrade")
	}
	*upgrade = *r.mapper.UpgradeToEntity(m)
	return nil
}

func (r *UpgradeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&model.Upgrade{}, id).Error
	return classify(err, "upgrade", id.String(), "delete upgrade")
}

func (r *UpgradeRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.UpgradeDefinition, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *UpgradeRepositoryImpl) FindByCode(ctx context.Context, code string) (*entity.UpgradeDefinition, error) {
	return r.findOne(ctx, specification.ByCode{Code: code})
}

func (r *UpgradeRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.UpgradeDefinition, error) {
	var m model.Upgrade
	query := specification.Apply(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err, "upgrade", "", "find upgrade")
	}
	return r.mapper.UpgradeToEntity(&m), nil
}

func (r *UpgradeRepositoryImpl) FindByCodes(ctx context.Context, codes []string) ([]*entity.UpgradeDefinition, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	return r.findMany(ctx, specification.ByCodes{Codes: codes})
}

func (r *UpgradeRepositoryImpl) FindAll(ctx context.Context, filter contract.CatalogFilter) ([]*entity.UpgradeDefinition, int64, error) {
	specs := catalogSpecs(filter)

	var total int64
	base := specification.Apply(r.db.WithContext(ctx).Model(&model.Upgrade{}), specs...)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "upgrade", "", "count upgrades")
	}

	specs = append(specs, specification.Pagination{Limit: filter.Limit, Offset: filter.Offset})
	upgrades, err := r.findMany(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}
	return upgrades, total, nil
}

func (r *UpgradeRepositoryImpl) FindGraph(ctx context.Context) ([]*entity.UpgradeDefinition, error) {
	return r.findMany(ctx)
}

func (r *UpgradeRepositoryImpl) FindRequiring(ctx context.Context, code string) ([]*entity.UpgradeDefinition, error) {
	return r.findMany(ctx, specification.JSONContains{Column: "requires", Value: []string{code}})
}

func (r *UpgradeRepositoryImpl) findMany(ctx context.Context, specs ...specification.Specification) ([]*entity.UpgradeDefinition, error) {
	var models []*model.Upgrade
	query := specification.Apply(r.db.WithContext(ctx).Scopes(scope.OrderByCode), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, classify(err, "upgrade", "", "list upgrades")
	}
	entities := make([]*entity.UpgradeDefinition, len(models))
	for i, m := range models {
		entities[i] = r.mapper.UpgradeToEntity(m)
	}
	return entities, nil
}
