package memory

import (
	"context"
	"sort"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type CouponRepository struct {
	store   *Store
	journal *journal
}

func (r *CouponRepository) Create(ctx context.Context, coupon *entity.Coupon) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	coupon.Code = entity.NormalizeCouponCode(coupon.Code)
	if _, exists := s.coupons[coupon.Code]; exists {
		return apperror.Conflict("coupon", coupon.Code, "code already exists")
	}
	if coupon.Id == uuid.Nil {
		coupon.Id = uuid.New()
	}
	now := s.now()
	coupon.CreatedAt, coupon.UpdatedAt = now, now
	s.coupons[coupon.Code] = cloneCoupon(coupon)

	code := coupon.Code
	r.journal.record(func() { delete(s.coupons, code) })
	return nil
}

func (r *CouponRepository) Update(ctx context.Context, coupon *entity.Coupon) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	code := entity.NormalizeCouponCode(coupon.Code)
	prev, ok := s.coupons[code]
	if !ok {
		return nil
	}
	if coupon.MaxUses != entity.UnlimitedUses && coupon.MaxUses < prev.CurrentUses {
		return apperror.Conflict("coupon", code, "max uses below current uses")
	}
	next := cloneCoupon(coupon)
	next.Code = code
	next.CurrentUses = prev.CurrentUses
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = s.now()
	s.coupons[code] = next

	r.journal.record(func() {
		// Keep whatever the counter moved to in the meantime.
		restored := cloneCoupon(prev)
		if cur, ok := s.coupons[code]; ok {
			restored.CurrentUses = cur.CurrentUses
		}
		s.coupons[code] = restored
	})
	return nil
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return cloneCoupon(r.store.coupons[entity.NormalizeCouponCode(code)]), nil
}

func (r *CouponRepository) FindAll(ctx context.Context, filter contract.CouponFilter) ([]*entity.Coupon, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := lo.Filter(values(r.store.coupons), func(c *entity.Coupon, _ int) bool {
		return filter.Active == nil || c.IsActive == *filter.Active
	})
	sortByCode(matched, func(c *entity.Coupon) string { return c.Code })
	page := paginate(matched, filter.Limit, filter.Offset)
	return lo.Map(page, func(c *entity.Coupon, _ int) *entity.Coupon { return cloneCoupon(c) }), int64(len(matched)), nil
}

func (r *CouponRepository) CountAssigningPlan(ctx context.Context, planCode string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, c := range r.store.coupons {
		if c.Type == entity.CouponTypePlanAssignment && c.PlanCode == planCode {
			count++
		}
	}
	return count, nil
}

func (r *CouponRepository) TryConsume(ctx context.Context, code string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entity.NormalizeCouponCode(code)
	c, ok := s.coupons[key]
	if !ok || !c.IsActive || !c.HasUsesLeft() {
		return false, nil
	}
	c.CurrentUses++
	r.journal.record(func() {
		if cur, ok := s.coupons[key]; ok && cur.CurrentUses > 0 {
			cur.CurrentUses--
		}
	})
	return true, nil
}

func (r *CouponRepository) Release(ctx context.Context, code string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entity.NormalizeCouponCode(code)
	c, ok := s.coupons[key]
	if !ok || c.CurrentUses == 0 {
		return nil
	}
	c.CurrentUses--
	r.journal.record(func() {
		if cur, ok := s.coupons[key]; ok {
			cur.CurrentUses++
		}
	})
	return nil
}

type InvoiceRepository struct {
	store   *Store
	journal *journal
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if invoice.Id == uuid.Nil {
		invoice.Id = uuid.New()
	}
	if _, exists := s.invoices[invoice.Id]; exists {
		return apperror.Conflict("invoice", invoice.Id.String(), "invoice already exists")
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = s.now()
	}
	s.invoices[invoice.Id] = cloneInvoice(invoice)

	id := invoice.Id
	r.journal.record(func() { delete(s.invoices, id) })
	return nil
}

func (r *InvoiceRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return cloneInvoice(r.store.invoices[id]), nil
}

func (r *InvoiceRepository) FindByProfile(ctx context.Context, profileId uuid.UUID, limit, offset int) ([]*entity.Invoice, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := lo.Filter(values(r.store.invoices), func(i *entity.Invoice, _ int) bool {
		return i.ProfileId == profileId
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	page := paginate(matched, limit, offset)
	return lo.Map(page, func(i *entity.Invoice, _ int) *entity.Invoice { return cloneInvoice(i) }), int64(len(matched)), nil
}

func (r *InvoiceRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.InvoiceStatus, at time.Time) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	prev := cloneInvoice(inv)
	inv.Status = to
	if to == entity.InvoiceStatusPaid {
		paid := at
		inv.PaidAt = &paid
	}
	r.journal.record(func() { s.invoices[id] = prev })
	return true, nil
}

func (r *InvoiceRepository) CountReferencing(ctx context.Context, itemType entity.ItemType, code string, statuses ...entity.InvoiceStatus) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, inv := range r.store.invoices {
		if len(statuses) > 0 && !lo.Contains(statuses, inv.Status) {
			continue
		}
		if inv.References(itemType, code) {
			count++
		}
	}
	return count, nil
}

func (r *InvoiceRepository) FindOverdue(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := lo.Filter(values(r.store.invoices), func(i *entity.Invoice, _ int) bool {
		return i.Status == entity.InvoiceStatusPending && !i.ExpiresAt.After(before)
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ExpiresAt.Before(matched[j].ExpiresAt) })
	page := paginate(matched, limit, 0)
	return lo.Map(page, func(i *entity.Invoice, _ int) *entity.Invoice { return cloneInvoice(i) }), nil
}

type EntitlementRepository struct {
	store   *Store
	journal *journal
}

func (r *EntitlementRepository) FindSlot(ctx context.Context, profileId uuid.UUID, kind entity.EntitlementKind, code string) (*entity.ProfileEntitlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := slotOf(&entity.ProfileEntitlement{ProfileId: profileId, Kind: kind, Code: code})
	return cloneEntitlement(r.store.entitlements[key]), nil
}

func (r *EntitlementRepository) FindByProfile(ctx context.Context, profileId uuid.UUID) ([]*entity.ProfileEntitlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := lo.Filter(values(r.store.entitlements), func(e *entity.ProfileEntitlement, _ int) bool {
		return e.ProfileId == profileId
	})
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Kind != matched[j].Kind {
			return matched[i].Kind < matched[j].Kind
		}
		return matched[i].Code < matched[j].Code
	})
	return lo.Map(matched, func(e *entity.ProfileEntitlement, _ int) *entity.ProfileEntitlement { return cloneEntitlement(e) }), nil
}

func (r *EntitlementRepository) Upsert(ctx context.Context, entitlement *entity.ProfileEntitlement) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotOf(entitlement)
	prev := s.entitlements[key]
	now := s.now()
	next := cloneEntitlement(entitlement)
	if prev != nil {
		next.Id = prev.Id
		next.CreatedAt = prev.CreatedAt
	} else {
		if next.Id == uuid.Nil {
			next.Id = uuid.New()
		}
		next.CreatedAt = now
	}
	next.UpdatedAt = now
	s.entitlements[key] = next
	*entitlement = *cloneEntitlement(next)

	r.journal.record(func() {
		if prev == nil {
			delete(s.entitlements, key)
			return
		}
		s.entitlements[key] = prev
	})
	return nil
}
