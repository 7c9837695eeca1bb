package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Coupon struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Type        string          `gorm:"type:varchar(20);not null"`
	Value       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PlanCode    string          `gorm:"type:varchar(100);index"`
	VariantDays int             `gorm:"default:0"`
	MaxUses     int             `gorm:"not null;default:-1"` // -1 = unlimited
	CurrentUses int             `gorm:"not null;default:0"`
	ValidFrom   time.Time       `gorm:"not null"`
	ValidUntil  time.Time       `gorm:"not null"`
	IsActive    bool            `gorm:"default:true"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (Coupon) TableName() string {
	return "coupons"
}

type InvoiceItem struct {
	Description    string          `json:"description"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Type           string          `json:"type"`
	Days           int             `json:"days"`
	Hours          int             `json:"hours,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	StackingPolicy string          `json:"stacking_policy"`
}

type Invoice struct {
	Id              uuid.UUID                        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProfileId       uuid.UUID                        `gorm:"type:uuid;not null;index"`
	UserId          uuid.UUID                        `gorm:"type:uuid;index"`
	Kind            string                           `gorm:"type:varchar(20);not null"`
	Items           datatypes.JSONSlice[InvoiceItem] `gorm:"type:jsonb;not null"`
	Subtotal        decimal.Decimal                  `gorm:"type:decimal(12,2);not null"`
	Discount        decimal.Decimal                  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal                  `gorm:"type:decimal(12,2);not null"`
	CouponCode      string                           `gorm:"type:varchar(64)"`
	Status          string                           `gorm:"type:varchar(20);not null;index"`
	ProjectedExpiry time.Time                        `gorm:"not null"`
	CreatedAt       time.Time                        `gorm:"autoCreateTime"`
	ExpiresAt       time.Time                        `gorm:"not null;index"`
	PaidAt          *time.Time                       `gorm:"index"`
}

func (Invoice) TableName() string {
	return "invoices"
}

type ProfileEntitlement struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProfileId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entitlement_slot,priority:1"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_entitlement_slot,priority:2"`
	SlotKey   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_entitlement_slot,priority:3"`
	Code      string    `gorm:"type:varchar(100);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	InvoiceId uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ProfileEntitlement) TableName() string {
	return "profile_entitlements"
}
