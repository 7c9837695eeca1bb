// Package purchase turns purchase and renewal requests into priced pending
// invoices and settles them into profile entitlements.
package purchase

import (
	"context"
	"fmt"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/entitlement/coupon"
	"listing-billing-be/pkg/entitlement/dependency"
	"listing-billing-be/pkg/entitlement/stacking"
	"listing-billing-be/pkg/lock"

	"github.com/google/uuid"
)

type Config struct {
	GracePeriod   time.Duration         // how long a pending invoice stays payable
	DefaultPolicy entity.StackingPolicy // used when a plan has no policy of its own
	Now           func() time.Time
}

type PlanRequest struct {
	ProfileId   uuid.UUID
	UserId      uuid.UUID
	PlanCode    string
	VariantDays int
	CouponCode  string
}

type UpgradeRequest struct {
	ProfileId   uuid.UUID
	UserId      uuid.UUID
	UpgradeCode string
	CouponCode  string
}

// Result carries the pending invoice and the entitlement expiry it would
// produce if paid now.
type Result struct {
	Invoice   *entity.Invoice
	ExpiresAt time.Time
	Coupon    *coupon.ApplicationResult
}

type Orchestrator struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     *coupon.Ledger
	resolver   *dependency.Resolver
	locker     lock.Locker
	cfg        Config
}

func NewOrchestrator(uowFactory unitofwork.RepositoryFactory, ledger *coupon.Ledger, resolver *dependency.Resolver, locker lock.Locker, cfg Config) *Orchestrator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 24 * time.Hour
	}
	if !cfg.DefaultPolicy.IsValid() {
		cfg.DefaultPolicy = entity.StackingExtend
	}
	return &Orchestrator{
		uowFactory: uowFactory,
		ledger:     ledger,
		resolver:   resolver,
		locker:     locker,
		cfg:        cfg,
	}
}

func (o *Orchestrator) PurchasePlan(ctx context.Context, req PlanRequest) (*Result, error) {
	return o.buyPlan(ctx, entity.InvoiceKindPurchase, req)
}

// RenewPlan always stacks with the plan's own policy, falling back to the
// configured default, anchored to the requested variant's duration.
func (o *Orchestrator) RenewPlan(ctx context.Context, req PlanRequest) (*Result, error) {
	return o.buyPlan(ctx, entity.InvoiceKindRenewal, req)
}

func (o *Orchestrator) buyPlan(ctx context.Context, kind entity.InvoiceKind, req PlanRequest) (*Result, error) {
	if req.ProfileId == uuid.Nil {
		return nil, apperror.Validation("profile_id", "is required")
	}

	release, err := o.lockProfile(ctx, req.ProfileId)
	if err != nil {
		return nil, err
	}
	defer release()

	uow := o.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal("begin purchase", err)
	}
	defer uow.Rollback()

	now := o.cfg.Now()

	// 1. plan and variant
	plan, err := uow.PlanRepository().FindByCode(ctx, req.PlanCode)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, apperror.NotFound("plan", req.PlanCode)
	}
	variant, ok := plan.Variant(req.VariantDays)
	if !ok {
		return nil, apperror.NotFound("plan variant", fmt.Sprintf("%s/%dd", req.PlanCode, req.VariantDays))
	}

	// 2. coupon, which may redirect the plan entirely
	var applied *coupon.ApplicationResult
	if req.CouponCode != "" {
		applied, err = o.ledger.Apply(ctx, uow, req.CouponCode, variant.Price, plan.Code)
		if err != nil {
			return nil, err
		}
		if applied.AssignedPlan != nil {
			plan, variant = applied.AssignedPlan, *applied.AssignedVariant
		}
	}

	// 3. bundled upgrades must be satisfiable
	report, err := o.resolver.ValidateIncluded(ctx, uow, plan)
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	included, err := uow.UpgradeRepository().FindByCodes(ctx, plan.IncludedUpgrades)
	if err != nil {
		return nil, err
	}

	// 4. projected expiry
	current, err := uow.EntitlementRepository().FindSlot(ctx, req.ProfileId, entity.EntitlementKindPlan, plan.Code)
	if err != nil {
		return nil, err
	}
	ownPolicy := stacking.Effective(plan.StackingPolicy, o.cfg.DefaultPolicy)
	policy := planPolicy(kind, ownPolicy, current, plan.Code, now)
	expiry := stacking.Resolve(policy, now, expiryOf(current), stacking.DurationForDays(variant.Days))

	// 5. invoice
	invoice := newInvoice(kind, req.ProfileId, req.UserId, now, o.cfg.GracePeriod, expiry)
	invoice.Items = append(invoice.Items, planItem(plan, variant, ownPolicy))
	invoice.Items = append(invoice.Items, includedItems(plan, included, variant.Days)...)
	price(invoice, applied)

	// 6. persist
	return o.persist(ctx, uow, invoice, applied)
}

// PurchaseUpgrade buys a single upgrade on its own.
func (o *Orchestrator) PurchaseUpgrade(ctx context.Context, req UpgradeRequest) (*Result, error) {
	if req.ProfileId == uuid.Nil {
		return nil, apperror.Validation("profile_id", "is required")
	}

	release, err := o.lockProfile(ctx, req.ProfileId)
	if err != nil {
		return nil, err
	}
	defer release()

	uow := o.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal("begin purchase", err)
	}
	defer uow.Rollback()

	now := o.cfg.Now()

	upgrade, err := uow.UpgradeRepository().FindByCode(ctx, req.UpgradeCode)
	if err != nil {
		return nil, err
	}
	if upgrade == nil || !upgrade.IsActive {
		return nil, apperror.NotFound("upgrade", req.UpgradeCode)
	}

	var applied *coupon.ApplicationResult
	if req.CouponCode != "" {
		applied, err = o.ledger.Apply(ctx, uow, req.CouponCode, upgrade.Price, "")
		if err != nil {
			return nil, err
		}
		if applied.AssignedPlan != nil {
			return nil, apperror.CouponInvalid(applied.Coupon.Code, apperror.CouponPlanMismatch, "plan assignment coupons cannot buy upgrades")
		}
	}

	report, err := o.resolver.Validate(ctx, uow, upgrade.Code)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, &apperror.DependencyError{
			Missing:   report.Missing,
			ByUpgrade: map[string][]string{upgrade.Code: report.Missing},
		}
	}

	current, err := uow.EntitlementRepository().FindSlot(ctx, req.ProfileId, entity.EntitlementKindUpgrade, upgrade.Code)
	if err != nil {
		return nil, err
	}
	policy := stacking.Effective(upgrade.StackingPolicy, entity.StackingExtend)
	expiry := stacking.Resolve(policy, now, expiryOf(current), upgrade.Duration())

	invoice := newInvoice(entity.InvoiceKindPurchase, req.ProfileId, req.UserId, now, o.cfg.GracePeriod, expiry)
	invoice.Items = append(invoice.Items, upgradeItem(upgrade, policy))
	price(invoice, applied)

	return o.persist(ctx, uow, invoice, applied)
}

// lockProfile serializes purchases and settlements of one profile, so the
// projected expiry is read against a slot no other writer is changing.
func (o *Orchestrator) lockProfile(ctx context.Context, profileId uuid.UUID) (func(), error) {
	release, err := o.locker.Acquire(ctx, ProfileLockKey(profileId))
	if err != nil {
		return nil, apperror.Internal("lock profile", err)
	}
	return release, nil
}

func (o *Orchestrator) persist(ctx context.Context, uow unitofwork.UnitOfWork, invoice *entity.Invoice, applied *coupon.ApplicationResult) (*Result, error) {
	if err := uow.InvoiceRepository().Create(ctx, invoice); err != nil {
		return nil, apperror.Internal("persist invoice", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal("commit purchase", err)
	}
	return &Result{Invoice: invoice, ExpiresAt: invoice.ProjectedExpiry, Coupon: applied}, nil
}

// planPolicy switches to replace when a purchase moves the profile onto a
// different plan while the old one is still running. Renewals and same-plan
// purchases keep the plan's own policy.
func planPolicy(kind entity.InvoiceKind, own entity.StackingPolicy, current *entity.ProfileEntitlement, code string, now time.Time) entity.StackingPolicy {
	if kind == entity.InvoiceKindPurchase && current != nil && current.ActiveAt(now) && current.Code != code {
		return entity.StackingReplace
	}
	return own
}

func expiryOf(current *entity.ProfileEntitlement) *time.Time {
	if current == nil {
		return nil
	}
	expiry := current.ExpiresAt
	return &expiry
}
