package main

import (
	"log"
	"os"

	"ai-discovery-be/internal/model"
	"ai-discovery-be/pkg/database"

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

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// gen_random_uuid() defaults
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	models := []interface{}{
		&model.DiscoverySession{},
		&model.DiscoveryMessage{},
		&model.DiscoveryIdea{},
	}

	log.Printf("Running AutoMigrate for %d tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// transcript reads are always per session in time order
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_discovery_messages_session_created ON discovery_messages (session_id, created_at);`).Error; err != nil {
		log.Printf("Warn: Failed to create transcript index: %v", err)
	}

	log.Println("Migration completed successfully")
}
