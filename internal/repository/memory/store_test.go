package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCoupon(t *testing.T, f *RepositoryFactory, code string, maxUses int) {
	t.Helper()
	ctx := context.Background()
	err := f.NewUnitOfWork(ctx).CouponRepository().Create(ctx, &entity.Coupon{
		Code:       code,
		Type:       entity.CouponTypePercentage,
		Value:      decimal.NewFromInt(10),
		MaxUses:    maxUses,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		IsActive:   true,
	})
	require.NoError(t, err)
}

func TestRollbackUndoesWritesInReverse(t *testing.T) {
	ctx := context.Background()
	f := NewRepositoryFactory(NewStore()).(*RepositoryFactory)
	seedCoupon(t, f, "save10", 5)

	uow := f.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))

	ok, err := uow.CouponRepository().TryConsume(ctx, "SAVE10")
	require.NoError(t, err)
	require.True(t, ok)

	inv := &entity.Invoice{ProfileId: uuid.New(), Status: entity.InvoiceStatusPending}
	require.NoError(t, uow.InvoiceRepository().Create(ctx, inv))

	require.NoError(t, uow.Rollback())

	reader := f.NewUnitOfWork(ctx)
	coupon, err := reader.CouponRepository().FindByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 0, coupon.CurrentUses)

	found, err := reader.InvoiceRepository().FindById(ctx, inv.Id)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	f := NewRepositoryFactory(NewStore()).(*RepositoryFactory)
	seedCoupon(t, f, "KEEP", entity.UnlimitedUses)

	uow := f.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.CouponRepository().TryConsume(ctx, "KEEP")
	require.NoError(t, err)
	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback())

	coupon, err := f.NewUnitOfWork(ctx).CouponRepository().FindByCode(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.CurrentUses)
}

func TestBeginTwiceFails(t *testing.T) {
	ctx := context.Background()
	uow := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	assert.Error(t, uow.Begin(ctx))
	assert.Error(t, NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).Commit())
}

func TestTryConsumeIsBoundedUnderContention(t *testing.T) {
	ctx := context.Background()
	f := NewRepositoryFactory(NewStore()).(*RepositoryFactory)
	seedCoupon(t, f, "LIMITED", 5)

	var wg sync.WaitGroup
	var wins int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.NewUnitOfWork(ctx).CouponRepository().TryConsume(ctx, "LIMITED")
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), wins)
	coupon, _ := f.NewUnitOfWork(ctx).CouponRepository().FindByCode(ctx, "LIMITED")
	assert.Equal(t, 5, coupon.CurrentUses)
}

func TestReleaseNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	f := NewRepositoryFactory(NewStore()).(*RepositoryFactory)
	seedCoupon(t, f, "ZERO", 1)

	repo := f.NewUnitOfWork(ctx).CouponRepository()
	require.NoError(t, repo.Release(ctx, "ZERO"))
	coupon, _ := repo.FindByCode(ctx, "ZERO")
	assert.Equal(t, 0, coupon.CurrentUses)
}

func TestCouponUpdateKeepsCounter(t *testing.T) {
	ctx := context.Background()
	f := NewRepositoryFactory(NewStore()).(*RepositoryFactory)
	seedCoupon(t, f, "EDIT", 10)

	repo := f.NewUnitOfWork(ctx).CouponRepository()
	_, err := repo.TryConsume(ctx, "EDIT")
	require.NoError(t, err)

	coupon, _ := repo.FindByCode(ctx, "EDIT")
	coupon.CurrentUses = 0
	coupon.MaxUses = 20
	require.NoError(t, repo.Update(ctx, coupon))

	coupon, _ = repo.FindByCode(ctx, "EDIT")
	assert.Equal(t, 1, coupon.CurrentUses)
	assert.Equal(t, 20, coupon.MaxUses)
}

func TestCouponUpdateBelowLiveUsesConflicts(t *testing.T) {
	ctx := context.Background()
	f := NewRepositoryFactory(NewStore()).(*RepositoryFactory)
	seedCoupon(t, f, "EDIT", 5)

	repo := f.NewUnitOfWork(ctx).CouponRepository()
	stale, _ := repo.FindByCode(ctx, "EDIT")
	for i := 0; i < 3; i++ {
		ok, err := repo.TryConsume(ctx, "EDIT")
		require.NoError(t, err)
		require.True(t, ok)
	}

	stale.MaxUses = 2
	err := repo.Update(ctx, stale)
	var conflict *apperror.ConflictError
	require.ErrorAs(t, err, &conflict)

	coupon, _ := repo.FindByCode(ctx, "EDIT")
	assert.Equal(t, 5, coupon.MaxUses)
	assert.Equal(t, 3, coupon.CurrentUses)

	coupon.MaxUses = entity.UnlimitedUses
	require.NoError(t, repo.Update(ctx, coupon))
	coupon.MaxUses = 3
	require.NoError(t, repo.Update(ctx, coupon))
}

func TestDuplicateCodesConflict(t *testing.T) {
	ctx := context.Background()
	uow := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx)

	require.NoError(t, uow.PlanRepository().Create(ctx, &entity.PlanDefinition{Code: "gold", IsActive: true}))
	err := uow.PlanRepository().Create(ctx, &entity.PlanDefinition{Code: "gold"})

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestPlanListingFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).PlanRepository()

	plans := []*entity.PlanDefinition{
		{Code: "silver", Name: "Silver", Level: 1, IsActive: true},
		{Code: "gold", Name: "Gold", Level: 2, IsActive: true},
		{Code: "legacy", Name: "Legacy", Level: 1, IsActive: false},
	}
	for _, p := range plans {
		require.NoError(t, repo.Create(ctx, p))
	}

	level := 1
	inactive := false
	tests := []struct {
		name      string
		filter    contract.CatalogFilter
		wantCodes []string
	}{
		{"active by default", contract.CatalogFilter{}, []string{"silver", "gold"}},
		{"include inactive", contract.CatalogFilter{IncludeInactive: true}, []string{"legacy", "silver", "gold"}},
		{"only inactive", contract.CatalogFilter{Active: &inactive}, []string{"legacy"}},
		{"by level", contract.CatalogFilter{Level: &level, IncludeInactive: true}, []string{"legacy", "silver"}},
		{"search", contract.CatalogFilter{Search: "GOL"}, []string{"gold"}},
		{"paged", contract.CatalogFilter{Limit: 1, Offset: 1}, []string{"gold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			codes := make([]string, len(got))
			for i, p := range got {
				codes[i] = p.Code
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestEntitlementPlanSlotIsShared(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).EntitlementRepository()
	profile := uuid.New()
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &entity.ProfileEntitlement{ProfileId: profile, Kind: entity.EntitlementKindPlan, Code: "silver", ExpiresAt: expiry}))
	require.NoError(t, repo.Upsert(ctx, &entity.ProfileEntitlement{ProfileId: profile, Kind: entity.EntitlementKindPlan, Code: "gold", ExpiresAt: expiry.AddDate(0, 1, 0)}))

	slot, err := repo.FindSlot(ctx, profile, entity.EntitlementKindPlan, "anything")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, "gold", slot.Code)

	all, err := repo.FindByProfile(ctx, profile)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTransitionStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).InvoiceRepository()
	inv := &entity.Invoice{ProfileId: uuid.New(), Status: entity.InvoiceStatusPending}
	require.NoError(t, repo.Create(ctx, inv))

	now := time.Now()
	ok, err := repo.TransitionStatus(ctx, inv.Id, entity.InvoiceStatusPending, entity.InvoiceStatusPaid, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, inv.Id, entity.InvoiceStatusPending, entity.InvoiceStatusCancelled, now)
	require.NoError(t, err)
	assert.False(t, ok)

	found, _ := repo.FindById(ctx, inv.Id)
	assert.Equal(t, entity.InvoiceStatusPaid, found.Status)
	require.NotNil(t, found.PaidAt)
}

func TestFindOverdueReturnsLapsedPendingOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(ctx).InvoiceRepository()
	now := time.Now()

	create := func(status entity.InvoiceStatus, expiresAt time.Time) uuid.UUID {
		inv := &entity.Invoice{ProfileId: uuid.New(), Status: status, ExpiresAt: expiresAt}
		require.NoError(t, repo.Create(ctx, inv))
		return inv.Id
	}
	late := create(entity.InvoiceStatusPending, now.Add(-time.Minute))
	older := create(entity.InvoiceStatusPending, now.Add(-time.Hour))
	create(entity.InvoiceStatusPending, now.Add(time.Hour))
	create(entity.InvoiceStatusPaid, now.Add(-2*time.Hour))

	overdue, err := repo.FindOverdue(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, older, overdue[0].Id)
	assert.Equal(t, late, overdue[1].Id)

	overdue, err = repo.FindOverdue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, older, overdue[0].Id)
}
