package purchase

import (
	"context"
	"fmt"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/entitlement/stacking"

	"github.com/google/uuid"
)

// Settlement is the outcome of paying an invoice.
type Settlement struct {
	Invoice      *entity.Invoice
	Entitlements []*entity.ProfileEntitlement
}

func ProfileLockKey(profileId uuid.UUID) string {
	return "profile:" + profileId.String()
}

// MarkPaid moves a pending invoice to paid and grants every item to the
// profile. Stacking is resolved again against the slots as they are now, so
// two invoices paid in a row both extend.
func (o *Orchestrator) MarkPaid(ctx context.Context, id uuid.UUID) (*Settlement, error) {
	invoice, err := o.peek(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := o.lockProfile(ctx, invoice.ProfileId)
	if err != nil {
		return nil, err
	}
	defer release()

	uow := o.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal("begin settlement", err)
	}
	defer uow.Rollback()

	now := o.cfg.Now()
	if invoice.Status == entity.InvoiceStatusPending && !now.Before(invoice.ExpiresAt) {
		return nil, apperror.Conflict("invoice", id.String(), "payment window has closed")
	}

	ok, err := uow.InvoiceRepository().TransitionStatus(ctx, id, entity.InvoiceStatusPending, entity.InvoiceStatusPaid, now)
	if err != nil {
		return nil, apperror.Internal("transition invoice", err)
	}
	if !ok {
		return nil, o.transitionConflict(ctx, uow, id, entity.InvoiceStatusPaid)
	}

	granted := make([]*entity.ProfileEntitlement, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		e, err := o.grant(ctx, uow, invoice, item, now)
		if err != nil {
			return nil, err
		}
		granted = append(granted, e)
	}

	paid, err := uow.InvoiceRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal("commit settlement", err)
	}
	return &Settlement{Invoice: paid, Entitlements: granted}, nil
}

func (o *Orchestrator) grant(ctx context.Context, uow unitofwork.UnitOfWork, invoice *entity.Invoice, item entity.InvoiceItem, now time.Time) (*entity.ProfileEntitlement, error) {
	kind := entity.EntitlementKindUpgrade
	if item.Type == entity.ItemTypePlan {
		kind = entity.EntitlementKindPlan
	}

	current, err := uow.EntitlementRepository().FindSlot(ctx, invoice.ProfileId, kind, item.Code)
	if err != nil {
		return nil, err
	}

	policy := stacking.Effective(item.StackingPolicy, o.cfg.DefaultPolicy)
	if kind == entity.EntitlementKindPlan {
		policy = planPolicy(invoice.Kind, policy, current, item.Code, now)
	}

	e := &entity.ProfileEntitlement{
		ProfileId: invoice.ProfileId,
		Kind:      kind,
		Code:      item.Code,
		ExpiresAt: stacking.Resolve(policy, now, expiryOf(current), item.Duration()),
		InvoiceId: invoice.Id,
	}
	if err := uow.EntitlementRepository().Upsert(ctx, e); err != nil {
		return nil, apperror.Internal("grant entitlement", err)
	}
	return e, nil
}

// Cancel closes a pending invoice. The coupon use it consumed stays spent.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return o.close(ctx, id, entity.InvoiceStatusCancelled)
}

// Expire closes a pending invoice whose payment window has passed.
func (o *Orchestrator) Expire(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return o.close(ctx, id, entity.InvoiceStatusExpired)
}

// Overdue lists pending invoices whose payment window has already closed.
func (o *Orchestrator) Overdue(ctx context.Context, limit int) ([]*entity.Invoice, error) {
	return o.uowFactory.NewUnitOfWork(ctx).InvoiceRepository().FindOverdue(ctx, o.cfg.Now(), limit)
}

func (o *Orchestrator) close(ctx context.Context, id uuid.UUID, to entity.InvoiceStatus) (*entity.Invoice, error) {
	uow := o.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal("begin invoice close", err)
	}
	defer uow.Rollback()

	ok, err := uow.InvoiceRepository().TransitionStatus(ctx, id, entity.InvoiceStatusPending, to, o.cfg.Now())
	if err != nil {
		return nil, apperror.Internal("transition invoice", err)
	}
	if !ok {
		return nil, o.transitionConflict(ctx, uow, id, to)
	}

	invoice, err := uow.InvoiceRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal("commit invoice close", err)
	}
	return invoice, nil
}

func (o *Orchestrator) transitionConflict(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, to entity.InvoiceStatus) error {
	current, err := uow.InvoiceRepository().FindById(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperror.NotFound("invoice", id.String())
	}
	return apperror.Conflict("invoice", id.String(), fmt.Sprintf("cannot move from %s to %s", current.Status, to))
}

func (o *Orchestrator) peek(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := o.uowFactory.NewUnitOfWork(ctx).InvoiceRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NotFound("invoice", id.String())
	}
	return invoice, nil
}

// GetInvoice returns one invoice.
func (o *Orchestrator) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return o.peek(ctx, id)
}

func (o *Orchestrator) ListInvoices(ctx context.Context, profileId uuid.UUID, limit, offset int) ([]*entity.Invoice, int64, error) {
	return o.uowFactory.NewUnitOfWork(ctx).InvoiceRepository().FindByProfile(ctx, profileId, limit, offset)
}

// Entitlements lists a profile's slots. Expired ones are dropped unless all is set.
func (o *Orchestrator) Entitlements(ctx context.Context, profileId uuid.UUID, all bool) ([]*entity.ProfileEntitlement, error) {
	list, err := o.uowFactory.NewUnitOfWork(ctx).EntitlementRepository().FindByProfile(ctx, profileId)
	if err != nil {
		return nil, err
	}
	if all {
		return list, nil
	}
	now := o.cfg.Now()
	active := list[:0]
	for _, e := range list {
		if e.ActiveAt(now) {
			active = append(active, e)
		}
	}
	return active, nil
}
