package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"alrah-ai-be/internal/config"
	"alrah-ai-be/internal/entity"
	"alrah-ai-be/internal/repository/implementation"
	"alrah-ai-be/pkg/database"
	"alrah-ai-be/pkg/embedding"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// seedRecord is one corpus passage in the input JSONL file.
type seedRecord struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

func main() {
	inputPath := flag.String("input", "corpus.jsonl", "path to JSONL corpus file")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}

	var provider embedding.Provider
	if cfg.Ai.LLMProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	} else {
		provider = embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.EmbeddingModel)
	}

	repo := implementation.NewPassageEmbeddingRepository(db)

	file, err := os.Open(*inputPath)
	if err != nil {
		log.Fatalf("Error: Failed to open %s: %v", *inputPath, err)
	}
	defer file.Close()

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	cyan.Printf("Seeding corpus from %s\n", *inputPath)

	ctx := context.Background()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	seeded, failed, line := 0, 0, 0
	for scanner.Scan() {
		line++

		var rec seedRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			red.Printf("line %d: invalid JSON: %v\n", line, err)
			failed++
			continue
		}
		if rec.Content == "" {
			continue
		}

		vec, err := provider.Generate(ctx, rec.Content)
		if err != nil {
			red.Printf("line %d: embedding failed: %v\n", line, err)
			failed++
			continue
		}

		passage := &entity.PassageEmbedding{
			Id:        uuid.New(),
			Source:    rec.Source,
			Content:   rec.Content,
			CreatedAt: time.Now(),
		}
		if err := repo.Create(ctx, passage, vec); err != nil {
			red.Printf("line %d: insert failed: %v\n", line, err)
			failed++
			continue
		}

		seeded++
		if seeded%50 == 0 {
			green.Printf("seeded %d passages...\n", seeded)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("Error: Failed reading %s: %v", *inputPath, err)
	}

	green.Printf("Done: %d seeded, %d failed\n", seeded, failed)
}
