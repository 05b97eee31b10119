package main

import (
	"log"
	"os"

	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/database"
	"ai-tutor-be/pkg/vectorstore/pgvectorstore"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	// 3. Extensions GORM AutoMigrate doesn't handle
	log.Println("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate all models
	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.User{},
		&model.AuthToken{},
		&model.StudySession{},
		&model.ConversationMessage{},
		&model.ConversationSnapshot{},
		&model.StoredDocument{},
		&model.DocumentChunk{},
		&model.GeneratedArtifact{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	// 5. Embedding table for the pgvector backend
	if os.Getenv("VECTORSTORE_PROVIDER") != "chromem" {
		log.Println("Step 3: Migrating pgvector chunk table...")
		if err := pgvectorstore.New(db, nil).Migrate(); err != nil {
			log.Fatal("Error: pgvector migration failed:", err)
		}
	}

	log.Println("Migration finished.")
}
