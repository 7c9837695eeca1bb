package mapper

import (
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/model"

	"gorm.io/datatypes"
)

type BillingMapper struct{}

func NewBillingMapper() *BillingMapper {
	return &BillingMapper{}
}

func (m *BillingMapper) CouponToEntity(c *model.Coupon) *entity.Coupon {
	if c == nil {
		return nil
	}
	return &entity.Coupon{
		Id:          c.Id,
		Code:        c.Code,
		Type:        entity.CouponType(c.Type),
		Value:       c.Value,
		PlanCode:    c.PlanCode,
		VariantDays: c.VariantDays,
		MaxUses:     c.MaxUses,
		CurrentUses: c.CurrentUses,
		ValidFrom:   c.ValidFrom,
		ValidUntil:  c.ValidUntil,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *BillingMapper) CouponToModel(c *entity.Coupon) *model.Coupon {
	if c == nil {
		return nil
	}
	return &model.Coupon{
		Id:          c.Id,
		Code:        c.Code,
		Type:        string(c.Type),
		Value:       c.Value,
		PlanCode:    c.PlanCode,
		VariantDays: c.VariantDays,
		MaxUses:     c.MaxUses,
		CurrentUses: c.CurrentUses,
		ValidFrom:   c.ValidFrom,
		ValidUntil:  c.ValidUntil,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *BillingMapper) InvoiceToEntity(i *model.Invoice) *entity.Invoice {
	if i == nil {
		return nil
	}
	items := make([]entity.InvoiceItem, len(i.Items))
	for idx, it := range i.Items {
		items[idx] = entity.InvoiceItem{
			Description:    it.Description,
			Name:           it.Name,
			Code:           it.Code,
			Type:           entity.ItemType(it.Type),
			Days:           it.Days,
			Hours:          it.Hours,
			Price:          it.Price,
			Quantity:       it.Quantity,
			StackingPolicy: entity.StackingPolicy(it.StackingPolicy),
		}
	}
	return &entity.Invoice{
		Id:              i.Id,
		ProfileId:       i.ProfileId,
		UserId:          i.UserId,
		Kind:            entity.InvoiceKind(i.Kind),
		Items:           items,
		Subtotal:        i.Subtotal,
		Discount:        i.Discount,
		TotalAmount:     i.TotalAmount,
		CouponCode:      i.CouponCode,
		Status:          entity.InvoiceStatus(i.Status),
		ProjectedExpiry: i.ProjectedExpiry,
		CreatedAt:       i.CreatedAt,
		ExpiresAt:       i.ExpiresAt,
		PaidAt:          i.PaidAt,
	}
}

func (m *BillingMapper) InvoiceToModel(i *entity.Invoice) *model.Invoice {
	if i == nil {
		return nil
	}
	items := make([]model.InvoiceItem, len(i.Items))
	for idx, it := range i.Items {
		items[idx] = model.InvoiceItem{
			Description:    it.Description,
			Name:           it.Name,
			Code:           it.Code,
			Type:           string(it.Type),
			Days:           it.Days,
			Hours:          it.Hours,
			Price:          it.Price,
			Quantity:       it.Quantity,
			StackingPolicy: string(it.StackingPolicy),
		}
	}
	return &model.Invoice{
		Id:              i.Id,
		ProfileId:       i.ProfileId,
		UserId:          i.UserId,
		Kind:            string(i.Kind),
		Items:           datatypes.NewJSONSlice(items),
		Subtotal:        i.Subtotal,
		Discount:        i.Discount,
		TotalAmount:     i.TotalAmount,
		CouponCode:      i.CouponCode,
		Status:          string(i.Status),
		ProjectedExpiry: i.ProjectedExpiry,
		CreatedAt:       i.CreatedAt,
		ExpiresAt:       i.ExpiresAt,
		PaidAt:          i.PaidAt,
	}
}

func (m *BillingMapper) EntitlementToEntity(e *model.ProfileEntitlement) *entity.ProfileEntitlement {
	if e == nil {
		return nil
	}
	return &entity.ProfileEntitlement{
		Id:        e.Id,
		ProfileId: e.ProfileId,
		Kind:      entity.EntitlementKind(e.Kind),
		Code:      e.Code,
		ExpiresAt: e.ExpiresAt,
		InvoiceId: e.InvoiceId,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (m *BillingMapper) EntitlementToModel(e *entity.ProfileEntitlement) *model.ProfileEntitlement {
	if e == nil {
		return nil
	}
	return &model.ProfileEntitlement{
		Id:        e.Id,
		ProfileId: e.ProfileId,
		Kind:      string(e.Kind),
		SlotKey:   EntitlementSlotKey(e.Kind, e.Code),
		Code:      e.Code,
		ExpiresAt: e.ExpiresAt,
		InvoiceId: e.InvoiceId,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// EntitlementSlotKey collapses every plan onto a single slot per profile while
// upgrades get one slot per code.
func EntitlementSlotKey(kind entity.EntitlementKind, code string) string {
	if kind == entity.EntitlementKindPlan {
		return string(entity.EntitlementKindPlan)
	}
	return code
}
