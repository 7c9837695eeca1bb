// FILE: internal/entity/entitlement_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type EntitlementKind string

const (
	EntitlementKindPlan    EntitlementKind = "plan"
	EntitlementKindUpgrade EntitlementKind = "upgrade"
)

// ProfileEntitlement is the active period a profile holds. A profile has one
// plan slot and one slot per upgrade code.
type ProfileEntitlement struct {
	Id        uuid.UUID
	ProfileId uuid.UUID
	Kind      EntitlementKind
	Code      string
	ExpiresAt time.Time
	InvoiceId uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *ProfileEntitlement) ActiveAt(now time.Time) bool {
	return e.ExpiresAt.After(now)
}
