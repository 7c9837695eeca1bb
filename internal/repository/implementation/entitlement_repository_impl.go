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
	"gorm.io/gorm/clause"
)

type EntitlementRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillingMapper
}

func NewEntitlementRepository(db *gorm.DB) contract.EntitlementRepository {
	return &EntitlementRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillingMapper(),
	}
}

// FindSlot locks the row when called inside a transaction so concurrent
// grants for the same slot serialize.
func (r *EntitlementRepositoryImpl) FindSlot(ctx context.Context, profileId uuid.UUID, kind entity.EntitlementKind, code string) (*entity.ProfileEntitlement, error) {
	var m model.ProfileEntitlement
	query := specification.Apply(r.db.WithContext(ctx).Scopes(scope.LockForUpdate),
		specification.ByProfile{ProfileID: profileId},
		specification.Filter("kind", string(kind)),
		specification.Filter("slot_key", mapper.EntitlementSlotKey(kind, code)),
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err, "entitlement", code, "find entitlement")
	}
	return r.mapper.EntitlementToEntity(&m), nil
}

func (r *EntitlementRepositoryImpl) FindByProfile(ctx context.Context, profileId uuid.UUID) ([]*entity.ProfileEntitlement, error) {
	var models []*model.ProfileEntitlement
	query := specification.Apply(r.db.WithContext(ctx),
		specification.ByProfile{ProfileID: profileId},
		specification.OrderBy{Field: "kind"},
		specification.OrderBy{Field: "code"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, classify(err, "entitlement", profileId.String(), "list entitlements")
	}
	entities := make([]*entity.ProfileEntitlement, len(models))
	for i, m := range models {
		entities[i] = r.mapper.EntitlementToEntity(m)
	}
	return entities, nil
}

func (r *EntitlementRepositoryImpl) Upsert(ctx context.Context, entitlement *entity.ProfileEntitlement) error {
	m := r.mapper.EntitlementToModel(entitlement)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}, {Name: "kind"}, {Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "invoice_id", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return classify(err, "entitlement", entitlement.Code, "upsert entitlement")
	}
	*entitlement = *r.mapper.EntitlementToEntity(m)
	return nil
}
