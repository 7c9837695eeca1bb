package main

import (
	"log"
	"os"

	"listing-billing-be/internal/model"
	"listing-billing-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database
	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 3. AutoMigrate
	models := []interface{}{
		&model.Plan{},
		&model.Upgrade{},
		&model.Coupon{},
		&model.Invoice{},
		&model.ProfileEntitlement{},
	}
	log.Printf("Step 2: Running AutoMigrate for %d Tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Post-Migration: indexes and constraints AutoMigrate cannot express
	log.Println("Step 3: Creating JSONB indexes and constraints...")

	postMigrationSQL := []string{
		// Containment lookups: plans bundling an upgrade, upgrades requiring one.
		`CREATE INDEX IF NOT EXISTS idx_plans_included_upgrades ON plans USING GIN (included_upgrades jsonb_path_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_upgrades_requires ON upgrades USING GIN (requires jsonb_path_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_items ON invoices USING GIN (items jsonb_path_ops);`,

		// Usage counter never passes its cap.
		`DO $$ BEGIN
		   IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_coupons_uses') THEN
		     ALTER TABLE coupons ADD CONSTRAINT chk_coupons_uses CHECK (current_uses >= 0 AND (max_uses = -1 OR current_uses <= max_uses));
		   END IF;
		 END $$;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
