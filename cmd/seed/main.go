package main

import (
	"context"
	"errors"
	"log"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/bootstrap"
	"listing-billing-be/internal/config"
	"listing-billing-be/internal/dto"
	"listing-billing-be/pkg/database"

	"github.com/shopspring/decimal"
)

// Upgrades are listed prerequisites first so every create passes the
// dependency checks.
var upgrades = []dto.CreateUpgradeRequest{
	{Code: "bump", Name: "Bump to Top", Description: "Moves the listing to the top of its category once a day", Price: decimal.NewFromInt(15000), DurationHours: 24, StackingPolicy: "extend"},
	{Code: "highlight", Name: "Highlight", Description: "Coloured frame in search results", Price: decimal.NewFromInt(25000), DurationHours: 72, StackingPolicy: "extend"},
	{Code: "gallery", Name: "Photo Gallery", Description: "Up to 30 photos on the listing page", Price: decimal.NewFromInt(20000), DurationHours: 168, StackingPolicy: "replace"},
	{Code: "spotlight", Name: "Home Spotlight", Description: "Rotates the listing on the home page", Price: decimal.NewFromInt(60000), DurationHours: 72, Requires: []string{"bump", "highlight"}, StackingPolicy: "extend"},
	{Code: "showcase", Name: "Showcase", Description: "Spotlight plus gallery carousel", Price: decimal.NewFromInt(90000), DurationHours: 168, Requires: []string{"spotlight", "gallery"}, StackingPolicy: "extend"},
}

var plans = []dto.CreatePlanRequest{
	{
		Code: "basic", Name: "Basic", Description: "Entry listing plan", Level: 1, SortOrder: 1,
		Variants: []dto.PlanVariantDTO{
			{Days: 30, Price: decimal.NewFromInt(50000), DurationRank: 1},
			{Days: 90, Price: decimal.NewFromInt(135000), DurationRank: 2},
		},
		Features:      dto.PlanFeaturesDTO{Filter: true},
		ContentLimits: map[string]dto.ContentLimitDTO{"photos": {Min: 1, Max: 5}, "videos": {Min: 0, Max: 0}},
	},
	{
		Code: "premium", Name: "Premium", Description: "Better placement with highlight included", Level: 2, SortOrder: 2,
		Variants: []dto.PlanVariantDTO{
			{Days: 30, Price: decimal.NewFromInt(150000), DurationRank: 1},
			{Days: 90, Price: decimal.NewFromInt(400000), DurationRank: 2},
		},
		Features:         dto.PlanFeaturesDTO{Filter: true, Highlight: true},
		ContentLimits:    map[string]dto.ContentLimitDTO{"photos": {Min: 1, Max: 15}, "videos": {Min: 0, Max: 1}},
		IncludedUpgrades: []string{"highlight"},
	},
	{
		Code: "gold", Name: "Gold", Description: "Home page presence and every upgrade bundled", Level: 3, SortOrder: 3,
		Variants: []dto.PlanVariantDTO{
			{Days: 30, Price: decimal.NewFromInt(300000), DurationRank: 1},
			{Days: 180, Price: decimal.NewFromInt(1500000), DurationRank: 2},
		},
		Features:         dto.PlanFeaturesDTO{Home: true, Filter: true, Sponsored: true, Highlight: true},
		ContentLimits:    map[string]dto.ContentLimitDTO{"photos": {Min: 1, Max: -1}, "videos": {Min: 0, Max: 5}},
		IncludedUpgrades: []string{"showcase"},
		StackingPolicy:   "replace",
	},
}

func coupons(now time.Time) []dto.CreateCouponRequest {
	until := now.AddDate(1, 0, 0)
	return []dto.CreateCouponRequest{
		{Code: "WELCOME10", Type: "percentage", Value: decimal.NewFromInt(10), MaxUses: -1, ValidFrom: now, ValidUntil: until},
		{Code: "FLAT25K", Type: "fixed_amount", Value: decimal.NewFromInt(25000), MaxUses: 100, ValidFrom: now, ValidUntil: until},
		{Code: "GOLDTRIAL", Type: "plan_assignment", PlanCode: "gold", VariantDays: 30, MaxUses: 10, ValidFrom: now, ValidUntil: until},
	}
}

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	container, err := bootstrap.NewContainer(db, cfg)
	if err != nil {
		log.Fatal("Error: Failed to bootstrap:", err)
	}
	defer container.Close()

	ctx := context.Background()

	log.Println("Seeding upgrades...")
	for _, req := range upgrades {
		_, err := container.CatalogService.CreateUpgrade(ctx, req)
		report("upgrade", req.Code, err)
	}

	log.Println("Seeding plans...")
	for _, req := range plans {
		_, err := container.CatalogService.CreatePlan(ctx, req)
		report("plan", req.Code, err)
	}

	log.Println("Seeding coupons...")
	for _, req := range coupons(time.Now().Truncate(time.Hour)) {
		_, err := container.CouponService.Create(ctx, req)
		report("coupon", req.Code, err)
	}

	log.Println("Catalog seeding completed!")
}

func report(kind, code string, err error) {
	var conflict *apperror.ConflictError
	switch {
	case err == nil:
		log.Printf("Created %s: %s", kind, code)
	case errors.As(err, &conflict):
		log.Printf("%s '%s' already exists, skipping...", kind, code)
	default:
		log.Printf("Error creating %s '%s': %v", kind, code, err)
	}
}
