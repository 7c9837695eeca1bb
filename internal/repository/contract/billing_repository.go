package contract

import (
	"context"
	"time"

	"listing-billing-be/internal/entity"

	"github.com/google/uuid"
)

type CouponFilter struct {
	Active *bool
	Limit  int
	Offset int
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *entity.Coupon) error
	Update(ctx context.Context, coupon *entity.Coupon) error
	FindByCode(ctx context.Context, code string) (*entity.Coupon, error)
	FindAll(ctx context.Context, filter CouponFilter) ([]*entity.Coupon, int64, error)
	CountAssigningPlan(ctx context.Context, planCode string) (int64, error)

	// TryConsume increments current_uses by one only if the coupon is active
	// and still has uses left, as a single conditional write. It reports
	// whether a row was updated.
	TryConsume(ctx context.Context, code string) (bool, error)
	// Release undoes one TryConsume. It never drives current_uses below zero.
	Release(ctx context.Context, code string) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	FindByProfile(ctx context.Context, profileId uuid.UUID, limit, offset int) ([]*entity.Invoice, int64, error)
	// TransitionStatus moves an invoice from one status to another only if it
	// is still in the from status. It reports whether the row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.InvoiceStatus, at time.Time) (bool, error)
	CountReferencing(ctx context.Context, itemType entity.ItemType, code string, statuses ...entity.InvoiceStatus) (int64, error)
	// FindOverdue returns pending invoices whose payment window closed at or
	// before the given time, oldest deadline first.
	FindOverdue(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error)
}

type EntitlementRepository interface {
	FindSlot(ctx context.Context, profileId uuid.UUID, kind entity.EntitlementKind, code string) (*entity.ProfileEntitlement, error)
	FindByProfile(ctx context.Context, profileId uuid.UUID) ([]*entity.ProfileEntitlement, error)
	Upsert(ctx context.Context, entitlement *entity.ProfileEntitlement) error
}
