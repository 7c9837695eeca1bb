package mapper

import (
	"encoding/json"

	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/model"

	"gorm.io/datatypes"
)

type CatalogMapper struct{}

func NewCatalogMapper() *CatalogMapper {
	return &CatalogMapper{}
}

func (m *CatalogMapper) PlanToEntity(p *model.Plan) *entity.PlanDefinition {
	if p == nil {
		return nil
	}

	variants := p.Variants.Data()
	entVariants := make([]entity.PlanVariant, len(variants))
	for i, v := range variants {
		entVariants[i] = entity.PlanVariant{Days: v.Days, Price: v.Price, DurationRank: v.DurationRank}
	}

	features := p.Features.Data()
	limits := p.ContentLimits.Data()
	entLimits := make(map[string]entity.ContentLimit, len(limits))
	for media, l := range limits {
		entLimits[media] = entity.ContentLimit{Min: l.Min, Max: l.Max}
	}

	return &entity.PlanDefinition{
		Id:          p.Id,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Level:       p.Level,
		Variants:    entVariants,
		Features: entity.PlanFeatures{
			Home:      features.Home,
			Filter:    features.Filter,
			Sponsored: features.Sponsored,
			Highlight: features.Highlight,
		},
		ContentLimits:    entLimits,
		IncludedUpgrades: append([]string(nil), p.IncludedUpgrades...),
		StackingPolicy:   entity.StackingPolicy(p.StackingPolicy),
		IsActive:         p.IsActive,
		SortOrder:        p.SortOrder,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (m *CatalogMapper) PlanToModel(p *entity.PlanDefinition) *model.Plan {
	if p == nil {
		return nil
	}

	variants := make([]model.PlanVariant, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = model.PlanVariant{Days: v.Days, Price: v.Price, DurationRank: v.DurationRank}
	}

	limits := make(map[string]model.ContentLimit, len(p.ContentLimits))
	for media, l := range p.ContentLimits {
		limits[media] = model.ContentLimit{Min: l.Min, Max: l.Max}
	}

	return &model.Plan{
		Id:          p.Id,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Level:       p.Level,
		Variants:    datatypes.NewJSONType(variants),
		Features: datatypes.NewJSONType(model.PlanFeatures{
			Home:      p.Features.Home,
			Filter:    p.Features.Filter,
			Sponsored: p.Features.Sponsored,
			Highlight: p.Features.Highlight,
		}),
		ContentLimits:    datatypes.NewJSONType(limits),
		IncludedUpgrades: datatypes.NewJSONSlice(append([]string{}, p.IncludedUpgrades...)),
		StackingPolicy:   string(p.StackingPolicy),
		IsActive:         p.IsActive,
		SortOrder:        p.SortOrder,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (m *CatalogMapper) UpgradeToEntity(u *model.Upgrade) *entity.UpgradeDefinition {
	if u == nil {
		return nil
	}
	var effect json.RawMessage
	if len(u.Effect) > 0 {
		effect = append(json.RawMessage(nil), u.Effect...)
	}
	return &entity.UpgradeDefinition{
		Id:             u.Id,
		Code:           u.Code,
		Name:           u.Name,
		Description:    u.Description,
		Price:          u.Price,
		DurationHours:  u.DurationHours,
		Requires:       append([]string(nil), u.Requires...),
		StackingPolicy: entity.StackingPolicy(u.StackingPolicy),
		Effect:         effect,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m *CatalogMapper) UpgradeToModel(u *entity.UpgradeDefinition) *model.Upgrade {
	if u == nil {
		return nil
	}
	var effect datatypes.JSON
	if len(u.Effect) > 0 {
		effect = datatypes.JSON(append([]byte(nil), u.Effect...))
	}
	return &model.Upgrade{
		Id:             u.Id,
		Code:           u.Code,
		Name:           u.Name,
		Description:    u.Description,
		Price:          u.Price,
		DurationHours:  u.DurationHours,
		Requires:       datatypes.NewJSONSlice(append([]string{}, u.Requires...)),
		StackingPolicy: string(u.StackingPolicy),
		Effect:         effect,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
