package unitofwork

import (
	"context"
	"fmt"

	"listing-billing-be/internal/repository/contract"
	"listing-billing-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback is a no-op after Commit so callers can always defer it.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) PlanRepository() contract.PlanRepository {
	return implementation.NewPlanRepository(u.getDB())
}

func (u *UnitOfWorkImpl) UpgradeRepository() contract.UpgradeRepository {
	return implementation.NewUpgradeRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CouponRepository() contract.CouponRepository {
	return implementation.NewCouponRepository(u.getDB())
}

func (u *UnitOfWorkImpl) InvoiceRepository() contract.InvoiceRepository {
	return implementation.NewInvoiceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) EntitlementRepository() contract.EntitlementRepository {
	return implementation.NewEntitlementRepository(u.getDB())
}
