package memory

import (
	"context"
	"fmt"
	"sync"

	"listing-billing-be/internal/repository/contract"
	"listing-billing-be/internal/repository/unitofwork"
)

// journal collects the inverse of every write made inside a unit. Rollback
// replays them newest first; Commit discards them.
type journal struct {
	mu      sync.Mutex
	active  bool
	inverse []func()
}

func (j *journal) record(undo func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.active {
		j.inverse = append(j.inverse, undo)
	}
}

type UnitOfWork struct {
	store   *Store
	journal *journal
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.journal.mu.Lock()
	defer u.journal.mu.Unlock()
	if u.journal.active {
		return fmt.Errorf("transaction already started")
	}
	u.journal.active = true
	u.journal.inverse = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	u.journal.mu.Lock()
	defer u.journal.mu.Unlock()
	if !u.journal.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.journal.active = false
	u.journal.inverse = nil
	return nil
}

// Rollback is a no-op after Commit so callers can always defer it.
func (u *UnitOfWork) Rollback() error {
	u.journal.mu.Lock()
	if !u.journal.active {
		u.journal.mu.Unlock()
		return nil
	}
	undo := u.journal.inverse
	u.journal.active = false
	u.journal.inverse = nil
	u.journal.mu.Unlock()

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	return nil
}

func (u *UnitOfWork) PlanRepository() contract.PlanRepository {
	return &PlanRepository{store: u.store, journal: u.journal}
}

func (u *UnitOfWork) UpgradeRepository() contract.UpgradeRepository {
	return &UpgradeRepository{store: u.store, journal: u.journal}
}

func (u *UnitOfWork) CouponRepository() contract.CouponRepository {
	return &CouponRepository{store: u.store, journal: u.journal}
}

func (u *UnitOfWork) InvoiceRepository() contract.InvoiceRepository {
	return &InvoiceRepository{store: u.store, journal: u.journal}
}

func (u *UnitOfWork) EntitlementRepository() contract.EntitlementRepository {
	return &EntitlementRepository{store: u.store, journal: u.journal}
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store, journal: &journal{}}
}
