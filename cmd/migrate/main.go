package main

import (
	"log"

	"insightai-be/internal/config"
	"insightai-be/internal/model"
	"insightai-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting run history migration...")

	// 3. AutoMigrate
	log.Println("Step 1: Running AutoMigrate for analysis_runs...")
	if err := db.AutoMigrate(&model.AnalysisRun{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Post-Migration: indexes AutoMigrate does not express
	log.Println("Step 2: Creating history indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_status_created_at ON analysis_runs (status, created_at DESC);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v. Continuing...", err)
		}
	}

	log.Println("✅ Migration completed successfully!")
}
