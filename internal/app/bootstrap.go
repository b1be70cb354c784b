package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"semsearch/internal/adapter/gemini"
	wstore "semsearch/internal/adapter/weaviate"
	"semsearch/internal/config"
)

type Dependencies struct {
	DB       *sql.DB
	Store    *wstore.Store
	Provider *gemini.Provider
}

// Bootstrap opens the database, applies migrations, connects to Weaviate and
// ensures the schema, and constructs the embedding provider. The provider is
// created once here and handed to the app by reference.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, fmt.Errorf("migration up error: %w", err)
	}

	wCfg := weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme}
	wClient, err := weaviate.NewClient(wCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client error: %w", err)
	}
	vecStore := wstore.NewStoreWithScanLimit(wClient, cfg.SearchScanLimit)

	if err := EnsureSchemaWithRetry(ctx, vecStore, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("weaviate schema error: %w", err)
	}

	provider, err := gemini.NewProvider(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("gemini provider error: %w", err)
	}

	return &Dependencies{
		DB:       db,
		Store:    vecStore,
		Provider: provider,
	}, nil
}

// EnsureSchemaWithRetry retries schema creation while Weaviate is starting.
func EnsureSchemaWithRetry(ctx context.Context, store *wstore.Store, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = store.EnsureSchema(ctx); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
