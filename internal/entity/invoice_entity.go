// FILE: internal/entity/invoice_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string
type InvoiceKind string
type ItemType string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusExpired   InvoiceStatus = "expired"

	InvoiceKindPurchase InvoiceKind = "purchase"
	InvoiceKindRenewal  InvoiceKind = "renewal"

	ItemTypePlan    ItemType = "plan"
	ItemTypeUpgrade ItemType = "upgrade"
)

func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled || s == InvoiceStatusExpired
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return s == InvoiceStatusPending && next.IsTerminal()
}

// InvoiceItem is a frozen copy of catalog data at purchase time.
type InvoiceItem struct {
	Description    string
	Name           string
	Code           string
	Type           ItemType
	Days           int
	Hours          int // Set for upgrades bought on their own
	Price          decimal.Decimal
	Quantity       int
	StackingPolicy StackingPolicy
}

func (i InvoiceItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i InvoiceItem) Duration() time.Duration {
	if i.Hours > 0 {
		return time.Duration(i.Hours) * time.Hour
	}
	return time.Duration(i.Days) * 24 * time.Hour
}

type Invoice struct {
	Id              uuid.UUID
	ProfileId       uuid.UUID
	UserId          uuid.UUID
	Kind            InvoiceKind
	Items           []InvoiceItem
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	TotalAmount     decimal.Decimal
	CouponCode      string
	Status          InvoiceStatus
	ProjectedExpiry time.Time
	CreatedAt       time.Time
	ExpiresAt       time.Time
	PaidAt          *time.Time
}

// ItemsTotal is Σ(price × quantity) over the item snapshot.
func (inv *Invoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// References reports whether any item snapshot carries the given code.
func (inv *Invoice) References(itemType ItemType, code string) bool {
	for _, item := range inv.Items {
		if item.Type == itemType && item.Code == code {
			return true
		}
	}
	return false
}
