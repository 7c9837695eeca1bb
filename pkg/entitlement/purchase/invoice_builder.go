package purchase

import (
	"fmt"
	"time"

	"listing-billing-be/internal/entity"
	"listing-billing-be/pkg/entitlement/coupon"
	"listing-billing-be/pkg/entitlement/stacking"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newInvoice(kind entity.InvoiceKind, profileId, userId uuid.UUID, now time.Time, grace time.Duration, projected time.Time) *entity.Invoice {
	return &entity.Invoice{
		Id:              uuid.New(),
		ProfileId:       profileId,
		UserId:          userId,
		Kind:            kind,
		Status:          entity.InvoiceStatusPending,
		Discount:        decimal.Zero,
		ProjectedExpiry: projected,
		CreatedAt:       now,
		ExpiresAt:       now.Add(grace),
	}
}

// Items copy catalog values so later catalog edits never reach old invoices.

func planItem(plan *entity.PlanDefinition, variant entity.PlanVariant, policy entity.StackingPolicy) entity.InvoiceItem {
	return entity.InvoiceItem{
		Description:    fmt.Sprintf("%s plan, %d days", plan.Name, variant.Days),
		Name:           plan.Name,
		Code:           plan.Code,
		Type:           entity.ItemTypePlan,
		Days:           variant.Days,
		Price:          variant.Price,
		Quantity:       1,
		StackingPolicy: policy,
	}
}

// includedItems adds one free line per bundled upgrade, lasting as long as the plan.
func includedItems(plan *entity.PlanDefinition, upgrades []*entity.UpgradeDefinition, days int) []entity.InvoiceItem {
	byCode := make(map[string]*entity.UpgradeDefinition, len(upgrades))
	for _, u := range upgrades {
		byCode[u.Code] = u
	}

	var items []entity.InvoiceItem
	for _, code := range plan.IncludedUpgrades {
		u, ok := byCode[code]
		if !ok {
			continue
		}
		items = append(items, entity.InvoiceItem{
			Description:    fmt.Sprintf("%s (included with %s)", u.Name, plan.Name),
			Name:           u.Name,
			Code:           u.Code,
			Type:           entity.ItemTypeUpgrade,
			Days:           days,
			Price:          decimal.Zero,
			Quantity:       1,
			StackingPolicy: stacking.Effective(u.StackingPolicy, entity.StackingExtend),
		})
	}
	return items
}

func upgradeItem(u *entity.UpgradeDefinition, policy entity.StackingPolicy) entity.InvoiceItem {
	return entity.InvoiceItem{
		Description:    fmt.Sprintf("%s, %d hours", u.Name, u.DurationHours),
		Name:           u.Name,
		Code:           u.Code,
		Type:           entity.ItemTypeUpgrade,
		Days:           u.DurationHours / 24,
		Hours:          u.DurationHours,
		Price:          u.Price,
		Quantity:       1,
		StackingPolicy: policy,
	}
}

// price fills the money fields. Discount coupons reduce the total; a plan
// assignment coupon has already replaced the item and adds no discount line.
func price(invoice *entity.Invoice, applied *coupon.ApplicationResult) {
	invoice.Subtotal = invoice.ItemsTotal()
	invoice.Discount = decimal.Zero
	if applied != nil {
		invoice.CouponCode = applied.Coupon.Code
		if applied.AssignedPlan == nil {
			invoice.Discount = decimal.Min(applied.Discount, invoice.Subtotal)
		}
	}
	invoice.TotalAmount = decimal.Max(invoice.Subtotal.Sub(invoice.Discount), decimal.Zero)
}
