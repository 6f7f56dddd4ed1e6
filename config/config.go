package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application, loaded once at startup.
type Config struct {
	// Server configuration
	ServerPort string

	// Google API configuration; one key serves speech, generation and
	// embeddings.
	GoogleAPIKey   string
	GeminiModel    string
	EmbeddingModel string
	SpeechURL      string

	// Vector store configuration
	QdrantAddr       string
	QdrantCollection string

	// Optional response cache; empty addr disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ingestion source directory
	DataDir string
}

// Load reads configuration from an optional config.yaml and the process
// environment (environment wins). Settings map to env vars by uppercasing
// and replacing dots with underscores, e.g. qdrant.addr -> QDRANT_ADDR.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("gemini.model", "gemini-1.5-flash")
	viper.SetDefault("embedding.model", "text-embedding-004")
	viper.SetDefault("speech.url", "")
	viper.SetDefault("qdrant.addr", "localhost:6334")
	viper.SetDefault("qdrant.collection", "recipes")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("data.dir", "./data")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		ServerPort:       viper.GetString("server.port"),
		GoogleAPIKey:     viper.GetString("google.api.key"),
		GeminiModel:      viper.GetString("gemini.model"),
		EmbeddingModel:   viper.GetString("embedding.model"),
		SpeechURL:        viper.GetString("speech.url"),
		QdrantAddr:       viper.GetString("qdrant.addr"),
		QdrantCollection: viper.GetString("qdrant.collection"),
		RedisAddr:        viper.GetString("redis.addr"),
		RedisPassword:    viper.GetString("redis.password"),
		RedisDB:          viper.GetInt("redis.db"),
		DataDir:          viper.GetString("data.dir"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.GoogleAPIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if c.QdrantAddr == "" {
		missing = append(missing, "QDRANT_ADDR")
	}
	if c.QdrantCollection == "" {
		missing = append(missing, "QDRANT_COLLECTION")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required settings are not set: %s", strings.Join(missing, ", "))
	}
	return nil
}
