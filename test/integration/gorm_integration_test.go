package integration

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/model"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(
		&model.Plan{}, &model.Upgrade{}, &model.Coupon{}, &model.Invoice{}, &model.ProfileEntitlement{},
	))
	return unitofwork.NewRepositoryFactory(gormDB)
}

func uniqueCode(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.New().String()[:8], "-", "")
}

func TestCatalogRoundTripAndContainment(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)

	base := &entity.UpgradeDefinition{Code: uniqueCode("bump"), Name: "Bump", Price: decimal.NewFromInt(1000), DurationHours: 24, StackingPolicy: entity.StackingExtend, IsActive: true}
	require.NoError(t, uow.UpgradeRepository().Create(ctx, base))
	top := &entity.UpgradeDefinition{Code: uniqueCode("boost"), Name: "Boost", Price: decimal.NewFromInt(2000), DurationHours: 48, Requires: []string{base.Code}, StackingPolicy: entity.StackingExtend, IsActive: true}
	require.NoError(t, uow.UpgradeRepository().Create(ctx, top))

	plan := &entity.PlanDefinition{
		Code: uniqueCode("gold"), Name: "Gold", Level: 3, IsActive: true,
		Variants:         []entity.PlanVariant{{Days: 30, Price: decimal.RequireFromString("299999.99")}},
		IncludedUpgrades: []string{top.Code},
		ContentLimits:    map[string]entity.ContentLimit{"photos": {Min: 1, Max: -1}},
	}
	require.NoError(t, uow.PlanRepository().Create(ctx, plan))

	got, err := uow.PlanRepository().FindByCode(ctx, plan.Code)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, decimal.RequireFromString("299999.99").Equal(got.Variants[0].Price))
	assert.Equal(t, -1, got.ContentLimits["photos"].Max)

	requiring, err := uow.UpgradeRepository().FindRequiring(ctx, base.Code)
	require.NoError(t, err)
	require.Len(t, requiring, 1)
	assert.Equal(t, top.Code, requiring[0].Code)

	including, err := uow.PlanRepository().FindIncludingUpgrade(ctx, top.Code)
	require.NoError(t, err)
	require.Len(t, including, 1)

	dup := &entity.UpgradeDefinition{Code: base.Code, Name: "Dup", DurationHours: 1, StackingPolicy: entity.StackingExtend}
	assert.Error(t, uow.UpgradeRepository().Create(ctx, dup))
}

func TestTryConsumeNeverOversells(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()

	code := strings.ToUpper(uniqueCode("cap"))
	require.NoError(t, factory.NewUnitOfWork(ctx).CouponRepository().Create(ctx, &entity.Coupon{
		Code: code, Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(5), MaxUses: 3,
		ValidFrom: time.Now().Add(-time.Hour), ValidUntil: time.Now().Add(time.Hour), IsActive: true,
	}))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := factory.NewUnitOfWork(ctx).CouponRepository().TryConsume(ctx, code)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(3), wins)

	c, err := factory.NewUnitOfWork(ctx).CouponRepository().FindByCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 3, c.CurrentUses)
}

func TestInvoiceTransitionAndRollback(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()
	profile := uuid.New()
	code := uniqueCode("plan")

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	inv := &entity.Invoice{
		ProfileId: profile, Kind: entity.InvoiceKindPurchase, Status: entity.InvoiceStatusPending,
		Items:     []entity.InvoiceItem{{Name: "Plan", Code: code, Type: entity.ItemTypePlan, Days: 30, Price: decimal.NewFromInt(100), Quantity: 1}},
		Subtotal:  decimal.NewFromInt(100), TotalAmount: decimal.NewFromInt(100),
		ProjectedExpiry: time.Now().Add(30 * 24 * time.Hour), ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, uow.InvoiceRepository().Create(ctx, inv))
	require.NoError(t, uow.Rollback())

	gone, err := factory.NewUnitOfWork(ctx).InvoiceRepository().FindById(ctx, inv.Id)
	require.NoError(t, err)
	assert.Nil(t, gone, "rolled back invoice must not persist")

	uow = factory.NewUnitOfWork(ctx)
	inv.Id = uuid.Nil
	require.NoError(t, uow.InvoiceRepository().Create(ctx, inv))

	count, err := uow.InvoiceRepository().CountReferencing(ctx, entity.ItemTypePlan, code, entity.InvoiceStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	moved, err := uow.InvoiceRepository().TransitionStatus(ctx, inv.Id, entity.InvoiceStatusPending, entity.InvoiceStatusPaid, time.Now())
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = uow.InvoiceRepository().TransitionStatus(ctx, inv.Id, entity.InvoiceStatusPending, entity.InvoiceStatusCancelled, time.Now())
	require.NoError(t, err)
	assert.False(t, moved, "a settled invoice cannot move again")

	err = uow.EntitlementRepository().Upsert(ctx, &entity.ProfileEntitlement{
		ProfileId: profile, Kind: entity.EntitlementKindPlan, Code: code, ExpiresAt: time.Now().Add(time.Hour), InvoiceId: inv.Id,
	})
	require.NoError(t, err)
	err = uow.EntitlementRepository().Upsert(ctx, &entity.ProfileEntitlement{
		ProfileId: profile, Kind: entity.EntitlementKindPlan, Code: uniqueCode("other"), ExpiresAt: time.Now().Add(2 * time.Hour), InvoiceId: inv.Id,
	})
	require.NoError(t, err)

	ents, err := uow.EntitlementRepository().FindByProfile(ctx, profile)
	require.NoError(t, err)
	assert.Len(t, ents, 1, "a profile holds a single plan slot")
}

func TestFindOverdueSkipsOpenAndSettledInvoices(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).InvoiceRepository()
	cutoff := time.Now()

	create := func(status entity.InvoiceStatus, expiresAt time.Time) uuid.UUID {
		inv := &entity.Invoice{
			ProfileId: uuid.New(), Kind: entity.InvoiceKindPurchase, Status: status,
			Items:     []entity.InvoiceItem{{Name: "Plan", Code: uniqueCode("plan"), Type: entity.ItemTypePlan, Days: 30, Price: decimal.NewFromInt(100), Quantity: 1}},
			Subtotal:  decimal.NewFromInt(100), TotalAmount: decimal.NewFromInt(100),
			ProjectedExpiry: expiresAt.Add(30 * 24 * time.Hour), ExpiresAt: expiresAt,
		}
		require.NoError(t, repo.Create(ctx, inv))
		return inv.Id
	}
	lapsed := create(entity.InvoiceStatusPending, cutoff.Add(-time.Minute))
	open := create(entity.InvoiceStatusPending, cutoff.Add(time.Hour))
	paid := create(entity.InvoiceStatusPaid, cutoff.Add(-time.Minute))

	overdue, err := repo.FindOverdue(ctx, cutoff, 0)
	require.NoError(t, err)
	ids := make(map[uuid.UUID]bool, len(overdue))
	for _, inv := range overdue {
		ids[inv.Id] = true
		assert.Equal(t, entity.InvoiceStatusPending, inv.Status)
		assert.False(t, inv.ExpiresAt.After(cutoff))
	}
	assert.True(t, ids[lapsed])
	assert.False(t, ids[open])
	assert.False(t, ids[paid])
}
