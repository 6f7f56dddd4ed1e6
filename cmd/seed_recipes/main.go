// Command seed_recipes performs the one-shot ingestion of the recipe
// collections into the vector store.
package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/souschef-app/backend/config"
	"github.com/souschef-app/backend/internal/ingest"
	"github.com/souschef-app/backend/internal/service"
	"github.com/souschef-app/backend/internal/store"
)

const (
	embedBatchSize  = 64
	upsertBatchSize = 256
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	recipes, err := ingest.LoadRecipes(cfg.DataDir)
	if err != nil {
		logger.Fatalf("Failed to load recipe collections: %v", err)
	}
	if len(recipes) == 0 {
		logger.Fatal("No recipes found in the source files")
	}

	records, skipped, err := ingest.BuildRecords(recipes)
	if err != nil {
		logger.Fatalf("Failed to prepare records: %v", err)
	}
	logger.Infof("Prepared %d records (%d duplicates skipped)", len(records), skipped)

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Fatalf("Failed to create genai client: %v", err)
	}
	embedder := service.NewEmbeddingService(genaiClient, cfg.EmbeddingModel)

	recipeStore, err := store.Connect(cfg.QdrantAddr, cfg.QdrantCollection)
	if err != nil {
		logger.Fatalf("Failed to connect to vector store: %v", err)
	}
	if err := recipeStore.EnsureCollection(ctx); err != nil {
		logger.Fatalf("Failed to ensure collection: %v", err)
	}

	for start := 0; start < len(records); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(records) {
			end = len(records)
		}

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = records[i].Document
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Fatalf("Failed to embed records %d-%d: %v", start, end, err)
		}
		for i := start; i < end; i++ {
			records[i].Vector = vectors[i-start]
		}
		logger.Infof("Embedded %d/%d records", end, len(records))
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := recipeStore.Upsert(ctx, records[start:end]); err != nil {
			logger.Fatalf("Failed to store records %d-%d: %v", start, end, err)
		}
	}

	logger.Infof("Successfully added %d recipes to the %q collection", len(records), cfg.QdrantCollection)
}
