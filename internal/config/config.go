package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"semsearch"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"semsearch"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`

	// Chunking
	ChunkSize        int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap     int `envconfig:"CHUNK_OVERLAP" default:"200"`
	MinContentLength int `envconfig:"MIN_CONTENT_LENGTH" default:"100"`

	// Embedding batches
	EmbedBatchSize       int `envconfig:"EMBED_BATCH_SIZE" default:"10"`
	EmbedBatchIntervalMs int `envconfig:"EMBED_BATCH_INTERVAL_MS" default:"100"`

	// Search
	SearchScanLimit int `envconfig:"SEARCH_SCAN_LIMIT" default:"10000"`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8080"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell instead; a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalidValue)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrInvalidValue)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("%w: EMBED_BATCH_SIZE must be positive", ErrInvalidValue)
	}
	if c.MinContentLength <= 0 {
		return fmt.Errorf("%w: MIN_CONTENT_LENGTH must be positive", ErrInvalidValue)
	}
	return nil
}
