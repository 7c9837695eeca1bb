package memory

import (
	"context"
	"sort"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type PlanRepository struct {
	store   *Store
	journal *journal
}

func (r *PlanRepository) Create(ctx context.Context, plan *entity.PlanDefinition) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.plans {
		if p.Code == plan.Code {
			return apperror.Conflict("plan", plan.Code, "code already exists")
		}
	}
	if plan.Id == uuid.Nil {
		plan.Id = uuid.New()
	}
	now := s.now()
	plan.CreatedAt, plan.UpdatedAt = now, now
	s.plans[plan.Id] = clonePlan(plan)

	id := plan.Id
	r.journal.record(func() { delete(s.plans, id) })
	return nil
}

func (r *PlanRepository) Update(ctx context.Context, plan *entity.PlanDefinition) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.plans {
		if p.Code == plan.Code && id != plan.Id {
			return apperror.Conflict("plan", plan.Code, "code already exists")
		}
	}
	prev := s.plans[plan.Id]
	plan.UpdatedAt = s.now()
	if prev != nil {
		plan.CreatedAt = prev.CreatedAt
	}
	s.plans[plan.Id] = clonePlan(plan)

	id := plan.Id
	r.journal.record(func() {
		if prev == nil {
			delete(s.plans, id)
			return
		}
		s.plans[id] = prev
	})
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.plans[id]
	if !ok {
		return nil
	}
	delete(s.plans, id)
	r.journal.record(func() { s.plans[id] = prev })
	return nil
}

func (r *PlanRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.PlanDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return clonePlan(r.store.plans[id]), nil
}

func (r *PlanRepository) FindByCode(ctx context.Context, code string) (*entity.PlanDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.plans {
		if p.Code == code {
			return clonePlan(p), nil
		}
	}
	return nil, nil
}

func (r *PlanRepository) FindAll(ctx context.Context, filter contract.CatalogFilter) ([]*entity.PlanDefinition, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := lo.Filter(values(r.store.plans), func(p *entity.PlanDefinition, _ int) bool {
		if filter.Level != nil && p.Level != *filter.Level {
			return false
		}
		return matchesCatalog(filter, p.IsActive, p.Code, p.Name)
	})
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Code < b.Code
	})

	page := paginate(matched, filter.Limit, filter.Offset)
	return lo.Map(page, func(p *entity.PlanDefinition, _ int) *entity.PlanDefinition { return clonePlan(p) }),
		int64(len(matched)), nil
}

func (r *PlanRepository) FindIncludingUpgrade(ctx context.Context, upgradeCode string) ([]*entity.PlanDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := lo.Filter(values(r.store.plans), func(p *entity.PlanDefinition, _ int) bool {
		return lo.Contains(p.IncludedUpgrades, upgradeCode)
	})
	sortByCode(matched, func(p *entity.PlanDefinition) string { return p.Code })
	return lo.Map(matched, func(p *entity.PlanDefinition, _ int) *entity.PlanDefinition { return clonePlan(p) }), nil
}

type UpgradeRepository struct {
	store   *Store
	journal *journal
}

func (r *UpgradeRepository) Create(ctx context.Context, upgrade *entity.UpgradeDefinition) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.upgrades {
		if u.Code == upgrade.Code {
			return apperror.Conflict("upgrade", upgrade.Code, "code already exists")
		}
	}
	if upgrade.Id == uuid.Nil {
		upgrade.Id = uuid.New()
	}
	now := s.now()
	upgrade.CreatedAt, upgrade.UpdatedAt = now, now
	s.upgrades[upgrade.Id] = cloneUpgrade(upgrade)

	id := upgrade.Id
	r.journal.record(func() { delete(s.upgrades, id) })
	return nil
}

func (r *UpgradeRepository) Update(ctx context.Context, upgrade *entity.UpgradeDefinition) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.upgrades {
		if u.Code == upgrade.Code && id != upgrade.Id {
			return apperror.Conflict("upgrade", upgrade.Code, "code already exists")
		}
	}
	prev := s.upgrades[upgrade.Id]
	upgrade.UpdatedAt = s.now()
	if prev != nil {
		upgrade.CreatedAt = prev.CreatedAt
	}
	s.upgrades[upgrade.Id] = cloneUpgrade(upgrade)

	id := upgrade.Id
	r.journal.record(func() {
		if prev == nil {
			delete(s.upgrades, id)
			return
		}
		s.upgrades[id] = prev
	})
	return nil
}

func (r *UpgradeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.upgrades[id]
	if !ok {
		return nil
	}
	delete(s.upgrades, id)
	r.journal.record(func() { s.upgrades[id] = prev })
	return nil
}

func (r *UpgradeRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.UpgradeDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return cloneUpgrade(r.store.upgrades[id]), nil
}

func (r *UpgradeRepository) FindByCode(ctx context.Context, code string) (*entity.UpgradeDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.upgrades {
		if u.Code == code {
			return cloneUpgrade(u), nil
		}
	}
	return nil, nil
}

func (r *UpgradeRepository) FindByCodes(ctx context.Context, codes []string) ([]*entity.UpgradeDefinition, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	return r.findMany(func(u *entity.UpgradeDefinition) bool { return lo.Contains(codes, u.Code) }), nil
}

func (r *UpgradeRepository) FindAll(ctx context.Context, filter contract.CatalogFilter) ([]*entity.UpgradeDefinition, int64, error) {
	matched := r.findMany(func(u *entity.UpgradeDefinition) bool {
		return matchesCatalog(filter, u.IsActive, u.Code, u.Name)
	})
	return paginate(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func (r *UpgradeRepository) FindGraph(ctx context.Context) ([]*entity.UpgradeDefinition, error) {
	return r.findMany(func(*entity.UpgradeDefinition) bool { return true }), nil
}

func (r *UpgradeRepository) FindRequiring(ctx context.Context, code string) ([]*entity.UpgradeDefinition, error) {
	return r.findMany(func(u *entity.UpgradeDefinition) bool { return lo.Contains(u.Requires, code) }), nil
}

func (r *UpgradeRepository) findMany(keep func(*entity.UpgradeDefinition) bool) []*entity.UpgradeDefinition {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := lo.Filter(values(r.store.upgrades), func(u *entity.UpgradeDefinition, _ int) bool { return keep(u) })
	sortByCode(matched, func(u *entity.UpgradeDefinition) string { return u.Code })
	return lo.Map(matched, func(u *entity.UpgradeDefinition, _ int) *entity.UpgradeDefinition { return cloneUpgrade(u) })
}
