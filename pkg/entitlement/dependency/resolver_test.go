package dependency

import (
	"context"
	"testing"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/memory"
	"listing-billing-be/internal/repository/unitofwork"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, defs ...*entity.UpgradeDefinition) unitofwork.UnitOfWork {
	t.Helper()
	ctx := context.Background()
	uow := memory.NewRepositoryFactory(memory.NewStore()).NewUnitOfWork(ctx)
	for _, d := range defs {
		require.NoError(t, uow.UpgradeRepository().Create(ctx, d))
	}
	return uow
}

func up(code string, active bool, requires ...string) *entity.UpgradeDefinition {
	return &entity.UpgradeDefinition{Code: code, Name: code, IsActive: active, Requires: requires, DurationHours: 24}
}

func TestValidate(t *testing.T) {
	uow := seed(t,
		up("bump", true),
		up("boost", true, "bump"),
		up("legacy", false),
		up("spotlight", true, "boost", "legacy"),
	)
	r := NewResolver()
	ctx := context.Background()

	tests := []struct {
		code        string
		wantValid   bool
		wantMissing []string
	}{
		{"bump", true, []string{}},
		{"boost", true, []string{}},
		{"spotlight", false, []string{"legacy"}},
		{"legacy", false, []string{"legacy"}},
		{"ghost", false, []string{"ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			report, err := r.Validate(ctx, uow, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, report.Valid)
			assert.Equal(t, tt.wantMissing, report.Missing)
		})
	}
}

func TestBuildTreeSharesDiamond(t *testing.T) {
	uow := seed(t,
		up("bump", true),
		up("boost", true, "bump"),
		up("highlight", true, "bump"),
		up("spotlight", true, "boost", "highlight"),
	)

	tree, err := NewResolver().BuildTree(context.Background(), uow, "spotlight")
	require.NoError(t, err)
	require.Len(t, tree.Requires, 2)

	left, right := tree.Requires[0], tree.Requires[1]
	assert.Equal(t, "boost", left.Code)
	assert.Equal(t, "highlight", right.Code)
	require.Len(t, left.Requires, 1)
	require.Len(t, right.Requires, 1)
	assert.Equal(t, "bump", left.Requires[0].Code)
	assert.Same(t, left.Requires[0], right.Requires[0])
}

func TestBuildTreeMarksUnknownPrerequisite(t *testing.T) {
	uow := seed(t, up("boost", true, "removed"))

	tree, err := NewResolver().BuildTree(context.Background(), uow, "boost")
	require.NoError(t, err)
	require.Len(t, tree.Requires, 1)
	assert.True(t, tree.Requires[0].Missing)
}

func TestBuildTreeUnknownRoot(t *testing.T) {
	_, err := NewResolver().BuildTree(context.Background(), seed(t), "nope")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestValidatePlanUpgradesAggregates(t *testing.T) {
	ctx := context.Background()
	uow := seed(t,
		up("bump", false),
		up("boost", true, "bump"),
		up("video", true, "gallery"),
		up("photo", true),
	)
	require.NoError(t, uow.PlanRepository().Create(ctx, &entity.PlanDefinition{
		Code:             "premium",
		IsActive:         true,
		IncludedUpgrades: []string{"boost", "video", "photo"},
	}))

	report, err := NewResolver().ValidatePlanUpgrades(ctx, uow, "premium")
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"bump", "gallery"}, report.Missing)
	assert.Equal(t, map[string][]string{"boost": {"bump"}, "video": {"gallery"}}, report.ByUpgrade)

	var depErr *apperror.DependencyError
	require.ErrorAs(t, report.Err(), &depErr)
	assert.Equal(t, report.Missing, depErr.Missing)
}

func TestValidatePlanUpgradesUnknownPlan(t *testing.T) {
	_, err := NewResolver().ValidatePlanUpgrades(context.Background(), seed(t), "nope")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
