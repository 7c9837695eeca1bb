package contract

import (
	"context"

	"listing-billing-be/internal/entity"

	"github.com/google/uuid"
)

// CatalogFilter narrows catalog listings. A nil Active means "active only";
// inactive records are returned only when asked for explicitly.
type CatalogFilter struct {
	Active          *bool
	IncludeInactive bool
	Level           *int
	Search          string
	Limit           int
	Offset          int
}

// Find methods return (nil, nil) when no record matches.
type PlanRepository interface {
	Create(ctx context.Context, plan *entity.PlanDefinition) error
	Update(ctx context.Context, plan *entity.PlanDefinition) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.PlanDefinition, error)
	FindByCode(ctx context.Context, code string) (*entity.PlanDefinition, error)
	FindAll(ctx context.Context, filter CatalogFilter) ([]*entity.PlanDefinition, int64, error)
	FindIncludingUpgrade(ctx context.Context, upgradeCode string) ([]*entity.PlanDefinition, error)
}

type UpgradeRepository interface {
	Create(ctx context.Context, upgrade *entity.UpgradeDefinition) error
	Update(ctx context.Context, upgrade *entity.UpgradeDefinition) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.UpgradeDefinition, error)
	FindByCode(ctx context.Context, code string) (*entity.UpgradeDefinition, error)
	FindByCodes(ctx context.Context, codes []string) ([]*entity.UpgradeDefinition, error)
	FindAll(ctx context.Context, filter CatalogFilter) ([]*entity.UpgradeDefinition, int64, error)
	// FindGraph returns every upgrade, active or not, for dependency analysis.
	FindGraph(ctx context.Context) ([]*entity.UpgradeDefinition, error)
	FindRequiring(ctx context.Context, code string) ([]*entity.UpgradeDefinition, error)
}
