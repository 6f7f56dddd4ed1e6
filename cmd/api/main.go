package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/souschef-app/backend/config"
	"github.com/souschef-app/backend/internal/api"
	"github.com/souschef-app/backend/internal/server"
	"github.com/souschef-app/backend/internal/service"
	"github.com/souschef-app/backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Fatalf("Failed to create genai client: %v", err)
	}

	recipeStore, err := store.Connect(cfg.QdrantAddr, cfg.QdrantCollection)
	if err != nil {
		logger.Fatalf("Failed to connect to vector store: %v", err)
	}

	var cache service.RecipeCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, response caching disabled")
		} else {
			cache = client
		}
		cancel()
	}

	speech := service.NewSpeechService(cfg.GoogleAPIKey, cfg.SpeechURL)
	interpreter := service.NewInterpreterService(genaiClient, cfg.GeminiModel)
	embedder := service.NewEmbeddingService(genaiClient, cfg.EmbeddingModel)
	recipes := service.NewRecipeService(recipeStore, embedder, cache, logger)

	handler := api.NewRecipeHandler(speech, interpreter, recipes, logger)
	srv := server.New(cfg.ServerPort, handler, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		logger.Infof("Received signal: %v", sig)
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server shutdown error: %v", err)
	}
	logger.Info("Server stopped")
}
