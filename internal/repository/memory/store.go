package memory

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/mapper"
	"listing-billing-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Store is a process-local backend for every repository contract. It is used
// when STORE_DRIVER=memory and by the engine tests.
type Store struct {
	mu sync.Mutex

	plans        map[uuid.UUID]*entity.PlanDefinition
	upgrades     map[uuid.UUID]*entity.UpgradeDefinition
	coupons      map[string]*entity.Coupon
	invoices     map[uuid.UUID]*entity.Invoice
	entitlements map[entitlementKey]*entity.ProfileEntitlement

	now func() time.Time
}

type entitlementKey struct {
	profileId uuid.UUID
	kind      entity.EntitlementKind
	slot      string
}

func NewStore() *Store {
	return &Store{
		plans:        make(map[uuid.UUID]*entity.PlanDefinition),
		upgrades:     make(map[uuid.UUID]*entity.UpgradeDefinition),
		coupons:      make(map[string]*entity.Coupon),
		invoices:     make(map[uuid.UUID]*entity.Invoice),
		entitlements: make(map[entitlementKey]*entity.ProfileEntitlement),
		now:          time.Now,
	}
}

// WithClock replaces the timestamp source used for CreatedAt/UpdatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func slotOf(e *entity.ProfileEntitlement) entitlementKey {
	return entitlementKey{profileId: e.ProfileId, kind: e.Kind, slot: mapper.EntitlementSlotKey(e.Kind, e.Code)}
}

func clonePlan(p *entity.PlanDefinition) *entity.PlanDefinition {
	if p == nil {
		return nil
	}
	c := *p
	c.Variants = append([]entity.PlanVariant(nil), p.Variants...)
	c.IncludedUpgrades = append([]string(nil), p.IncludedUpgrades...)
	if p.ContentLimits != nil {
		c.ContentLimits = make(map[string]entity.ContentLimit, len(p.ContentLimits))
		for k, v := range p.ContentLimits {
			c.ContentLimits[k] = v
		}
	}
	return &c
}

func cloneUpgrade(u *entity.UpgradeDefinition) *entity.UpgradeDefinition {
	if u == nil {
		return nil
	}
	c := *u
	c.Requires = append([]string(nil), u.Requires...)
	c.Effect = append(json.RawMessage(nil), u.Effect...)
	return &c
}

func cloneCoupon(c *entity.Coupon) *entity.Coupon {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func cloneInvoice(i *entity.Invoice) *entity.Invoice {
	if i == nil {
		return nil
	}
	c := *i
	c.Items = append([]entity.InvoiceItem(nil), i.Items...)
	if i.PaidAt != nil {
		paid := *i.PaidAt
		c.PaidAt = &paid
	}
	return &c
}

func cloneEntitlement(e *entity.ProfileEntitlement) *entity.ProfileEntitlement {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// matchesCatalog mirrors the gorm catalog specifications.
func matchesCatalog(filter contract.CatalogFilter, active bool, code, name string) bool {
	switch {
	case filter.Active != nil:
		if active != *filter.Active {
			return false
		}
	case !filter.IncludeInactive:
		if !active {
			return false
		}
	}
	if filter.Search != "" {
		term := strings.ToLower(filter.Search)
		return strings.Contains(strings.ToLower(code), term) || strings.Contains(strings.ToLower(name), term)
	}
	return true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortByCode[T any](items []T, code func(T) string) {
	sort.Slice(items, func(i, j int) bool { return code(items[i]) < code(items[j]) })
}

func values[K comparable, V any](m map[K]V) []V {
	return lo.Map(lo.Keys(m), func(k K, _ int) V { return m[k] })
}
