package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchasePlanRequest struct {
	ProfileId   uuid.UUID `json:"profile_id" validate:"required"`
	UserId      uuid.UUID `json:"user_id"`
	PlanCode    string    `json:"plan_code" validate:"required"`
	VariantDays int       `json:"variant_days" validate:"required,gt=0"`
	CouponCode  string    `json:"coupon_code"`
}

type PurchaseUpgradeRequest struct {
	ProfileId   uuid.UUID `json:"profile_id" validate:"required"`
	UserId      uuid.UUID `json:"user_id"`
	UpgradeCode string    `json:"upgrade_code" validate:"required"`
	CouponCode  string    `json:"coupon_code"`
}

type PurchaseResponse struct {
	Invoice   InvoiceResponse `json:"invoice"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type InvoiceItemResponse struct {
	Description string          `json:"description"`
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Days        int             `json:"days"`
	Hours       int             `json:"hours,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type InvoiceResponse struct {
	Id              uuid.UUID             `json:"id"`
	ProfileId       uuid.UUID             `json:"profile_id"`
	UserId          uuid.UUID             `json:"user_id"`
	Kind            string                `json:"kind"`
	Items           []InvoiceItemResponse `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Discount        decimal.Decimal       `json:"discount"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	CouponCode      string                `json:"coupon_code,omitempty"`
	Status          string                `json:"status"`
	ProjectedExpiry time.Time             `json:"projected_expiry"`
	CreatedAt       time.Time             `json:"created_at"`
	ExpiresAt       time.Time             `json:"expires_at"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
}

type InvoiceListRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type EntitlementResponse struct {
	Kind      string    `json:"kind"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
	InvoiceId uuid.UUID `json:"invoice_id"`
}

type ExpireOverdueResponse struct {
	Expired int `json:"expired"`
}
