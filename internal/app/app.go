package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"semsearch/features/article"
	ingesthttp "semsearch/features/ingest"
	"semsearch/features/manage"
	searchhttp "semsearch/features/search"
	wstore "semsearch/internal/adapter/weaviate"
	"semsearch/internal/config"
	"semsearch/internal/embedding"
	"semsearch/internal/ingest"
	"semsearch/internal/middleware"
	"semsearch/internal/retrieval"
	"semsearch/internal/text"
)

type App struct {
	Handler http.Handler
	port    int
}

// New wires the core pipeline: chunker -> embedder -> store for ingestion,
// embedder -> store for retrieval, plus the article registry and the
// management surface.
func New(cfg *config.Config, db *sql.DB, vecStore *wstore.Store, provider embedding.Provider) (*App, error) {
	chunker := text.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	embedSvc := embedding.NewService(provider, cfg.EmbedBatchSize,
		time.Duration(cfg.EmbedBatchIntervalMs)*time.Millisecond)

	// Feature: Article registry
	articleRepo := article.NewPostgresRepo(db)
	articleSvc := article.NewService(articleRepo)
	articleHandler := article.NewHandler(articleSvc)

	// Core services
	ingestSvc := ingest.NewService(chunker, embedSvc, vecStore,
		&registryAdapter{service: articleSvc}, cfg.MinContentLength)

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalSvc := retrieval.NewService(embedSvc, vecStore, queryLogger)

	// Handlers
	ingestHandler := ingesthttp.NewHandler(ingestSvc)
	searchHandler := searchhttp.NewHandler(retrievalSvc)
	manageHandler := manage.NewHandler(vecStore, articleSvc)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /ingest", middleware.CorrelationID(enableCORS(ingestHandler.Ingest)))
	mux.Handle("POST /search", middleware.CorrelationID(enableCORS(searchHandler.Search)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(manageHandler.GetStats)))
	mux.Handle("GET /articles", middleware.CorrelationID(enableCORS(articleHandler.List)))
	mux.Handle("GET /articles/{title}/chunks", middleware.CorrelationID(enableCORS(manageHandler.GetArticleChunks)))
	mux.Handle("DELETE /articles/{title}", middleware.CorrelationID(enableCORS(manageHandler.DeleteArticle)))
	mux.Handle("DELETE /embeddings/{id}", middleware.CorrelationID(enableCORS(manageHandler.DeleteEmbedding)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{Handler: mux, port: cfg.ServerPort}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// registryAdapter bridges the ingest service's registry interface to the
// article feature.
type registryAdapter struct {
	service *article.Service
}

func (a *registryAdapter) Record(ctx context.Context, rec ingest.ArticleRecord) error {
	return a.service.Record(ctx, &article.Article{
		Title:         rec.Title,
		Author:        rec.Author,
		URL:           rec.URL,
		PublishedDate: rec.PublishedDate,
		ChunkCount:    rec.ChunkCount,
	})
}
