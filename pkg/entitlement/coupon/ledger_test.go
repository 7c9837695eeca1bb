package coupon

import (
	"context"
	"sync"
	"testing"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/memory"
	"listing-billing-be/internal/repository/unitofwork"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	factory unitofwork.RepositoryFactory
	ledger  *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		factory: memory.NewRepositoryFactory(memory.NewStore()),
		ledger:  NewLedger(fixedClock),
	}
	uow := f.uow()
	require.NoError(t, uow.PlanRepository().Create(context.Background(), &entity.PlanDefinition{
		Code:     "premium",
		Name:     "Premium",
		IsActive: true,
		Variants: []entity.PlanVariant{
			{Days: 30, Price: decimal.NewFromInt(150000)},
			{Days: 90, Price: decimal.NewFromInt(400000)},
		},
	}))
	require.NoError(t, uow.PlanRepository().Create(context.Background(), &entity.PlanDefinition{
		Code:     "retired",
		IsActive: false,
		Variants: []entity.PlanVariant{{Days: 30, Price: decimal.NewFromInt(1)}},
	}))
	return f
}

func (f *fixture) uow() unitofwork.UnitOfWork {
	return f.factory.NewUnitOfWork(context.Background())
}

func (f *fixture) coupon(t *testing.T, c *entity.Coupon) {
	t.Helper()
	if c.ValidFrom.IsZero() {
		c.ValidFrom = testNow.Add(-24 * time.Hour)
	}
	if c.ValidUntil.IsZero() {
		c.ValidUntil = testNow.Add(24 * time.Hour)
	}
	require.NoError(t, f.uow().CouponRepository().Create(context.Background(), c))
}

func (f *fixture) uses(t *testing.T, code string) int {
	t.Helper()
	c, err := f.uow().CouponRepository().FindByCode(context.Background(), code)
	require.NoError(t, err)
	return c.CurrentUses
}

func TestApplyPricing(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, &entity.Coupon{Code: "SAVE10", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(10), MaxUses: 100, IsActive: true})
	f.coupon(t, &entity.Coupon{Code: "BIGCUT", Type: entity.CouponTypeFixedAmount, Value: decimal.NewFromInt(200000), MaxUses: -1, IsActive: true})
	f.coupon(t, &entity.Coupon{Code: "THIRD", Type: entity.CouponTypePercentage, Value: decimal.RequireFromString("33.333"), MaxUses: -1, IsActive: true})
	f.coupon(t, &entity.Coupon{Code: "GIFT90", Type: entity.CouponTypePlanAssignment, PlanCode: "premium", VariantDays: 90, MaxUses: -1, IsActive: true})

	tests := []struct {
		name         string
		code         string
		base         int64
		wantDiscount string
		wantFinal    string
	}{
		{"percentage", "save10", 150000, "15000", "135000"},
		{"fixed clamps at base", "BIGCUT", 150000, "150000", "0"},
		{"percentage rounds to cents", "THIRD", 100, "33.33", "66.67"},
		{"assignment cheaper than base", "GIFT90", 500000, "100000", "400000"},
		{"assignment dearer than base", "GIFT90", 150000, "0", "400000"},
		{"assignment without base", "GIFT90", 0, "0", "400000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.ledger.Apply(context.Background(), f.uow(), tt.code, decimal.NewFromInt(tt.base), "premium")
			require.NoError(t, err)
			assert.True(t, res.Discount.Equal(decimal.RequireFromString(tt.wantDiscount)), "discount %s", res.Discount)
			assert.True(t, res.FinalPrice.Equal(decimal.RequireFromString(tt.wantFinal)), "final %s", res.FinalPrice)
			assert.True(t, res.Consumed)
		})
	}

	assert.Equal(t, 1, f.uses(t, "SAVE10"))
}

func TestApplyPlanAssignmentOverridesPlan(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, &entity.Coupon{Code: "GIFT", Type: entity.CouponTypePlanAssignment, PlanCode: "premium", VariantDays: 30, MaxUses: 1, IsActive: true})

	res, err := f.ledger.Apply(context.Background(), f.uow(), "GIFT", decimal.NewFromInt(99000), "basic")
	require.NoError(t, err)
	require.NotNil(t, res.AssignedPlan)
	assert.Equal(t, "premium", res.AssignedPlan.Code)
	assert.Equal(t, 30, res.AssignedVariant.Days)
}

func TestApplyRejections(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, &entity.Coupon{Code: "OFF", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(5), MaxUses: -1, IsActive: false})
	f.coupon(t, &entity.Coupon{Code: "OLD", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(5), MaxUses: -1, IsActive: true,
		ValidFrom: testNow.Add(-48 * time.Hour), ValidUntil: testNow.Add(-24 * time.Hour)})
	f.coupon(t, &entity.Coupon{Code: "SOON", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(5), MaxUses: -1, IsActive: true,
		ValidFrom: testNow.Add(time.Hour), ValidUntil: testNow.Add(48 * time.Hour)})
	f.coupon(t, &entity.Coupon{Code: "USED", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(5), MaxUses: 0, IsActive: true})
	f.coupon(t, &entity.Coupon{Code: "GOLDONLY", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(5), PlanCode: "gold", MaxUses: -1, IsActive: true})
	f.coupon(t, &entity.Coupon{Code: "DEADPLAN", Type: entity.CouponTypePlanAssignment, PlanCode: "retired", VariantDays: 30, MaxUses: -1, IsActive: true})
	f.coupon(t, &entity.Coupon{Code: "NOVARIANT", Type: entity.CouponTypePlanAssignment, PlanCode: "premium", VariantDays: 7, MaxUses: -1, IsActive: true})
	// Inactive and expired at once: the active flag is checked first.
	f.coupon(t, &entity.Coupon{Code: "BOTH", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(5), MaxUses: 0, IsActive: false,
		ValidFrom: testNow.Add(-48 * time.Hour), ValidUntil: testNow.Add(-24 * time.Hour)})

	tests := []struct {
		code       string
		wantReason apperror.CouponReason
	}{
		{"MISSING", apperror.CouponNotFound},
		{"OFF", apperror.CouponInactive},
		{"OLD", apperror.CouponExpired},
		{"SOON", apperror.CouponExpired},
		{"USED", apperror.CouponExhausted},
		{"GOLDONLY", apperror.CouponPlanMismatch},
		{"DEADPLAN", apperror.CouponPlanMismatch},
		{"NOVARIANT", apperror.CouponPlanMismatch},
		{"BOTH", apperror.CouponInactive},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := f.ledger.Apply(context.Background(), f.uow(), tt.code, decimal.NewFromInt(1000), "premium")
			var couponErr *apperror.CouponInvalidError
			require.ErrorAs(t, err, &couponErr)
			assert.Equal(t, tt.wantReason, couponErr.Reason)
			if tt.wantReason != apperror.CouponNotFound {
				assert.Equal(t, 0, f.uses(t, tt.code))
			}
		})
	}
}

func TestQuoteDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, &entity.Coupon{Code: "PEEK", Type: entity.CouponTypeFixedAmount, Value: decimal.NewFromInt(500), MaxUses: 1, IsActive: true})

	for i := 0; i < 3; i++ {
		res, err := f.ledger.Quote(context.Background(), f.uow(), "PEEK", decimal.NewFromInt(2000), "")
		require.NoError(t, err)
		assert.False(t, res.Consumed)
	}
	assert.Equal(t, 0, f.uses(t, "PEEK"))
}

func TestApplyUnderContention(t *testing.T) {
	for _, n := range []int{5, 6, 50} {
		f := newFixture(t)
		f.coupon(t, &entity.Coupon{Code: "FIVE", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(10), MaxUses: 5, IsActive: true})

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.ledger.Apply(context.Background(), f.uow(), "FIVE", decimal.NewFromInt(1000), "")
			}(i)
		}
		wg.Wait()

		succeeded, exhausted := 0, 0
		for _, err := range errs {
			var couponErr *apperror.CouponInvalidError
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorAs(t, err, &couponErr) && couponErr.Reason == apperror.CouponExhausted:
				exhausted++
			}
		}
		assert.Equal(t, 5, succeeded, "n=%d", n)
		assert.Equal(t, n-5, exhausted, "n=%d", n)
		assert.Equal(t, 5, f.uses(t, "FIVE"))
	}
}

func TestRelease(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, &entity.Coupon{Code: "BACK", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(10), MaxUses: 1, IsActive: true})

	_, err := f.ledger.Apply(context.Background(), f.uow(), "BACK", decimal.NewFromInt(100), "")
	require.NoError(t, err)
	require.NoError(t, f.ledger.Release(context.Background(), f.uow(), "back"))
	assert.Equal(t, 0, f.uses(t, "BACK"))

	_, err = f.ledger.Apply(context.Background(), f.uow(), "BACK", decimal.NewFromInt(100), "")
	assert.NoError(t, err)
}

func TestManagerValidation(t *testing.T) {
	f := newFixture(t)
	m := NewManager()
	window := func(r dto.CreateCouponRequest) dto.CreateCouponRequest {
		r.ValidFrom, r.ValidUntil = testNow, testNow.Add(time.Hour)
		return r
	}

	tests := []struct {
		name    string
		req     dto.CreateCouponRequest
		wantErr bool
	}{
		{"valid percentage", window(dto.CreateCouponRequest{Code: "p1", Type: "percentage", Value: decimal.NewFromInt(15), MaxUses: -1}), false},
		{"percentage above 100", window(dto.CreateCouponRequest{Code: "p2", Type: "percentage", Value: decimal.NewFromInt(101)}), true},
		{"negative fixed", window(dto.CreateCouponRequest{Code: "f1", Type: "fixed_amount", Value: decimal.NewFromInt(-1)}), true},
		{"max uses below -1", window(dto.CreateCouponRequest{Code: "f2", Type: "fixed_amount", MaxUses: -2}), true},
		{"assignment without target", window(dto.CreateCouponRequest{Code: "a1", Type: "plan_assignment"}), true},
		{"assignment unknown variant", window(dto.CreateCouponRequest{Code: "a2", Type: "plan_assignment", PlanCode: "premium", VariantDays: 7}), true},
		{"valid assignment", window(dto.CreateCouponRequest{Code: "a3", Type: "plan_assignment", PlanCode: "premium", VariantDays: 90}), false},
		{"inverted window", dto.CreateCouponRequest{Code: "w1", Type: "percentage", ValidFrom: testNow, ValidUntil: testNow.Add(-time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := m.Create(context.Background(), f.uow(), tt.req)
			if tt.wantErr {
				var vErr *apperror.ValidationError
				assert.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entity.NormalizeCouponCode(tt.req.Code), c.Code)
		})
	}
}

func TestManagerUpdateKeepsUsesConsistent(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, &entity.Coupon{Code: "TWICE", Type: entity.CouponTypePercentage, Value: decimal.NewFromInt(10), MaxUses: 5, IsActive: true})
	for i := 0; i < 2; i++ {
		_, err := f.ledger.Apply(context.Background(), f.uow(), "TWICE", decimal.NewFromInt(100), "")
		require.NoError(t, err)
	}

	one := 1
	_, err := NewManager().Update(context.Background(), f.uow(), "twice", dto.UpdateCouponRequest{MaxUses: &one})
	var vErr *apperror.ValidationError
	assert.ErrorAs(t, err, &vErr)

	c, err := NewManager().Deactivate(context.Background(), f.uow(), "TWICE")
	require.NoError(t, err)
	assert.False(t, c.IsActive)
	assert.Equal(t, 2, f.uses(t, "TWICE"))
}
