package unitofwork

import (
	"context"

	"listing-billing-be/internal/repository/contract"
)

// UnitOfWork groups repository calls so they commit or roll back together.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PlanRepository() contract.PlanRepository
	UpgradeRepository() contract.UpgradeRepository
	CouponRepository() contract.CouponRepository
	InvoiceRepository() contract.InvoiceRepository
	EntitlementRepository() contract.EntitlementRepository
}
