package main

import (
	"log"
	"os"

	"alrah-ai-be/internal/model"
	"alrah-ai-be/pkg/database"

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
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: extensions GORM AutoMigrate doesn't handle
	log.Println("Step 1: Setting up extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Setup SQL failed (%s): %v", sql, err)
		}
	}

	// 4. AutoMigrate models
	log.Println("Step 2: Migrating tables...")

	if err := db.AutoMigrate(
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.PassageEmbedding{},
	); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Vector index (cosine). AutoMigrate cannot express this.
	log.Println("Step 3: Creating vector index...")

	indexSQL := `CREATE INDEX IF NOT EXISTS idx_passage_embeddings_cosine
		ON passage_embeddings
		USING ivfflat (embedding_value vector_cosine_ops)
		WITH (lists = 100);`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Fatalf("Error: Vector index creation failed: %v", err)
	}

	log.Println("Migration completed successfully")
}
