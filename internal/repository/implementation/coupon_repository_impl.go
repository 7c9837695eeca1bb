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

	"gorm.io/gorm"
)

type CouponRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillingMapper
}

func NewCouponRepository(db *gorm.DB) contract.CouponRepository {
	return &CouponRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillingMapper(),
	}
}

func (r *CouponRepositoryImpl) Create(ctx context.Context, coupon *entity.Coupon) error {
	m := r.mapper.CouponToModel(coupon)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return classify(err, "coupon", coupon.Code, "create coupon")
	}
	*coupon = *r.mapper.CouponToEntity(m)
	return nil
}

// Update never touches current_uses; the counter is owned by TryConsume and Release.
func (r *CouponRepositoryImpl) Update(ctx context.Context, coupon *entity.Coupon) error {
	m := r.mapper.CouponToModel(coupon)
	err := r.db.WithContext(ctx).Model(m).
		Select("type", "value", "plan_code", "variant_days", "max_uses", "valid_from", "valid_until", "is_active", "updated_at").
		Updates(m).Error
	if err != nil {
		return classify(err, "coupon", coupon.Code, "update coupon")
	}
	return nil
}

func (r *CouponRepositoryImpl) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	var m model.Coupon
	query := specification.ByCode{Code: entity.NormalizeCouponCode(code)}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err, "coupon", code, "find coupon")
	}
	return r.mapper.CouponToEntity(&m), nil
}

func (r *CouponRepositoryImpl) FindAll(ctx context.Context, filter contract.CouponFilter) ([]*entity.Coupon, int64, error) {
	var specs []specification.Specification
	if filter.Active != nil {
		specs = append(specs, specification.ByActive{Active: *filter.Active})
	}

	var total int64
	if err := specification.Apply(r.db.WithContext(ctx).Model(&model.Coupon{}), specs...).Count(&total).Error; err != nil {
		return nil, 0, classify(err, "coupon", "", "count coupons")
	}

	specs = append(specs, specification.Pagination{Limit: filter.Limit, Offset: filter.Offset})
	var models []*model.Coupon
	query := specification.Apply(r.db.WithContext(ctx).Scopes(scope.OrderByCode), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, classify(err, "coupon", "", "list coupons")
	}
	entities := make([]*entity.Coupon, len(models))
	for i, m := range models {
		entities[i] = r.mapper.CouponToEntity(m)
	}
	return entities, total, nil
}

func (r *CouponRepositoryImpl) CountAssigningPlan(ctx context.Context, planCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("type = ? AND plan_code = ?", string(entity.CouponTypePlanAssignment), planCode).
		Count(&count).Error
	if err != nil {
		return 0, classify(err, "coupon", planCode, "count plan assignment coupons")
	}
	return count, nil
}

func (r *CouponRepositoryImpl) TryConsume(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("code = ? AND is_active = ?", entity.NormalizeCouponCode(code), true).
		Where("max_uses = ? OR current_uses < max_uses", entity.UnlimitedUses).
		Update("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return false, classify(result.Error, "coupon", code, "consume coupon")
	}
	return result.RowsAffected == 1, nil
}

func (r *CouponRepositoryImpl) Release(ctx context.Context, code string) error {
	err := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("code = ? AND current_uses > 0", entity.NormalizeCouponCode(code)).
		Update("current_uses", gorm.Expr("current_uses - 1")).Error
	return classify(err, "coupon", code, "release coupon")
}
