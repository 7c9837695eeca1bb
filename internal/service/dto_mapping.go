package service

import (
	"time"

	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"

	"github.com/samber/lo"
)

func toPlanResponse(p *entity.PlanDefinition) *dto.PlanResponse {
	limits := make(map[string]dto.ContentLimitDTO, len(p.ContentLimits))
	for media, l := range p.ContentLimits {
		limits[media] = dto.ContentLimitDTO{Min: l.Min, Max: l.Max}
	}
	return &dto.PlanResponse{
		Id:          p.Id,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Level:       p.Level,
		Variants: lo.Map(p.Variants, func(v entity.PlanVariant, _ int) dto.PlanVariantDTO {
			return dto.PlanVariantDTO{Days: v.Days, Price: v.Price, DurationRank: v.DurationRank}
		}),
		Features: dto.PlanFeaturesDTO{
			Home:      p.Features.Home,
			Filter:    p.Features.Filter,
			Sponsored: p.Features.Sponsored,
			Highlight: p.Features.Highlight,
		},
		ContentLimits:    limits,
		IncludedUpgrades: nonNilStrings(p.IncludedUpgrades),
		StackingPolicy:   string(p.StackingPolicy),
		IsActive:         p.IsActive,
		SortOrder:        p.SortOrder,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toUpgradeResponse(u *entity.UpgradeDefinition) *dto.UpgradeResponse {
	return &dto.UpgradeResponse{
		Id:             u.Id,
		Code:           u.Code,
		Name:           u.Name,
		Description:    u.Description,
		Price:          u.Price,
		DurationHours:  u.DurationHours,
		Requires:       nonNilStrings(u.Requires),
		StackingPolicy: string(u.StackingPolicy),
		Effect:         u.Effect,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toCouponResponse(c *entity.Coupon) *dto.CouponResponse {
	return &dto.CouponResponse{
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
	}
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		Id:        inv.Id,
		ProfileId: inv.ProfileId,
		UserId:    inv.UserId,
		Kind:      string(inv.Kind),
		Items: lo.Map(inv.Items, func(i entity.InvoiceItem, _ int) dto.InvoiceItemResponse {
			return dto.InvoiceItemResponse{
				Description: i.Description,
				Name:        i.Name,
				Code:        i.Code,
				Type:        string(i.Type),
				Days:        i.Days,
				Hours:       i.Hours,
				Price:       i.Price,
				Quantity:    i.Quantity,
			}
		}),
		Subtotal:        inv.Subtotal,
		Discount:        inv.Discount,
		TotalAmount:     inv.TotalAmount,
		CouponCode:      inv.CouponCode,
		Status:          string(inv.Status),
		ProjectedExpiry: inv.ProjectedExpiry,
		CreatedAt:       inv.CreatedAt,
		ExpiresAt:       inv.ExpiresAt,
		PaidAt:          inv.PaidAt,
	}
}

func toEntitlementResponse(e *entity.ProfileEntitlement, now time.Time) dto.EntitlementResponse {
	return dto.EntitlementResponse{
		Kind:      string(e.Kind),
		Code:      e.Code,
		ExpiresAt: e.ExpiresAt,
		Active:    e.ActiveAt(now),
		InvoiceId: e.InvoiceId,
	}
}

func listResponse[E any, R any](items []E, total int64, page, limit int, convert func(E) *R) *dto.ListResponse[R] {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, *convert(item))
	}
	return &dto.ListResponse[R]{Items: out, Total: total, Page: page, Limit: limit}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// pageOf mirrors the normalization the managers apply so responses echo the
// page that was actually served.
func pageOf(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
