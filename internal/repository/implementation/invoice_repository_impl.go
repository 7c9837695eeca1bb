package implementation

import (
	"context"
	"errors"
	"time"

	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/mapper"
	"listing-billing-be/internal/model"
	"listing-billing-be/internal/repository/contract"
	"listing-billing-be/internal/repository/scope"
	"listing-billing-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillingMapper
}

func NewInvoiceRepository(db *gorm.DB) contract.InvoiceRepository {
	return &InvoiceRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillingMapper(),
	}
}

func (r *InvoiceRepositoryImpl) Create(ctx context.Context, invoice *entity.Invoice) error {
	m := r.mapper.InvoiceToModel(invoice)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return classify(err, "invoice", invoice.Id.String(), "create invoice")
	}
	*invoice = *r.mapper.InvoiceToEntity(m)
	return nil
}

func (r *InvoiceRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var m model.Invoice
	query := specification.ByID{ID: id}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err, "invoice", id.String(), "find invoice")
	}
	return r.mapper.InvoiceToEntity(&m), nil
}

func (r *InvoiceRepositoryImpl) FindByProfile(ctx context.Context, profileId uuid.UUID, limit, offset int) ([]*entity.Invoice, int64, error) {
	byProfile := specification.ByProfile{ProfileID: profileId}

	var total int64
	if err := byProfile.Apply(r.db.WithContext(ctx).Model(&model.Invoice{})).Count(&total).Error; err != nil {
		return nil, 0, classify(err, "invoice", profileId.String(), "count invoices")
	}

	var models []*model.Invoice
	query := specification.Apply(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedDesc),
		byProfile,
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, classify(err, "invoice", profileId.String(), "list invoices")
	}
	entities := make([]*entity.Invoice, len(models))
	for i, m := range models {
		entities[i] = r.mapper.InvoiceToEntity(m)
	}
	return entities, total, nil
}

func (r *InvoiceRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.InvoiceStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": string(to)}
	if to == entity.InvoiceStatusPaid {
		updates["paid_at"] = at
	}
	result := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return false, classify(result.Error, "invoice", id.String(), "transition invoice")
	}
	return result.RowsAffected == 1, nil
}

func (r *InvoiceRepositoryImpl) CountReferencing(ctx context.Context, itemType entity.ItemType, code string, statuses ...entity.InvoiceStatus) (int64, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var count int64
	query := specification.Apply(r.db.WithContext(ctx).Model(&model.Invoice{}),
		specification.JSONContains{
			Column: "items",
			Value:  []map[string]string{{"type": string(itemType), "code": code}},
		},
		specification.ByStatuses{Statuses: names},
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, classify(err, "invoice", code, "count invoices referencing item")
	}
	return count, nil
}

func (r *InvoiceRepositoryImpl) FindOverdue(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error) {
	var models []*model.Invoice
	query := specification.Apply(r.db.WithContext(ctx),
		specification.ByStatuses{Statuses: []string{string(entity.InvoiceStatusPending)}},
		specification.DueBy{At: before},
		specification.OrderBy{Field: "expires_at"},
		specification.Pagination{Limit: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, classify(err, "invoice", "", "find overdue invoices")
	}
	entities := make([]*entity.Invoice, len(models))
	for i, m := range models {
		entities[i] = r.mapper.InvoiceToEntity(m)
	}
	return entities, nil
}
