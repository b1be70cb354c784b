package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"semsearch/internal/document"
)

// DefaultMinContentLength rejects articles too short to be worth chunking.
const DefaultMinContentLength = 100

type IngestRequest struct {
	Content         string
	Title           string
	Author          string
	URL             string
	PublishedDate   string
	ReplaceExisting bool
}

type IngestResult struct {
	EmbeddingsCount  int    `json:"embeddingsCount"`
	ArticleTitle     string `json:"articleTitle"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

type Chunker interface {
	Split(content string, meta document.Metadata) []document.Chunk
}

type Embedder interface {
	GenerateEmbeddings(ctx context.Context, chunks []document.Chunk) ([]document.VectorRecord, error)
}

type VectorStore interface {
	UpsertMany(ctx context.Context, records []document.VectorRecord) error
	DeleteByTitle(ctx context.Context, title string) (int, error)
}

// ArticleRecord is the registry's view of one ingested article.
type ArticleRecord struct {
	Title         string
	Author        string
	URL           string
	PublishedDate string
	ChunkCount    int
}

// Registry tracks ingested articles outside the vector store. Recording is
// best effort and never fails an ingestion.
type Registry interface {
	Record(ctx context.Context, rec ArticleRecord) error
}

// Service runs the ingestion pipeline: validate, chunk, embed, persist.
// The pipeline is not atomic end to end; a failure partway leaves earlier
// committed batches in place, and re-running with ReplaceExisting is the
// recovery path.
type Service struct {
	chunker          Chunker
	embedder         Embedder
	store            VectorStore
	registry         Registry
	minContentLength int
}

func NewService(chunker Chunker, embedder Embedder, store VectorStore, registry Registry, minContentLength int) *Service {
	if minContentLength <= 0 {
		minContentLength = DefaultMinContentLength
	}
	return &Service{
		chunker:          chunker,
		embedder:         embedder,
		store:            store,
		registry:         registry,
		minContentLength: minContentLength,
	}
}

func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	start := time.Now()

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", document.ErrValidation)
	}
	if len(req.Content) < s.minContentLength {
		return nil, fmt.Errorf("%w: content must be at least %d characters, got %d",
			document.ErrValidation, s.minContentLength, len(req.Content))
	}

	if req.ReplaceExisting {
		if _, err := s.store.DeleteByTitle(ctx, req.Title); err != nil && !errors.Is(err, document.ErrNotFound) {
			return nil, s.fail(start, req.Title, err)
		}
	}

	chunks := s.chunker.Split(req.Content, document.Metadata{
		Title:         req.Title,
		Author:        req.Author,
		URL:           req.URL,
		PublishedDate: req.PublishedDate,
	})

	records, err := s.embedder.GenerateEmbeddings(ctx, chunks)
	if err != nil {
		return nil, s.fail(start, req.Title, err)
	}

	if err := s.store.UpsertMany(ctx, records); err != nil {
		return nil, s.fail(start, req.Title, err)
	}

	if s.registry != nil {
		rec := ArticleRecord{
			Title:         req.Title,
			Author:        req.Author,
			URL:           req.URL,
			PublishedDate: req.PublishedDate,
			ChunkCount:    len(records),
		}
		if err := s.registry.Record(ctx, rec); err != nil {
			slog.WarnContext(ctx, "failed to record article in registry", "title", req.Title, "error", err)
		}
	}

	elapsed := time.Since(start)
	slog.InfoContext(ctx, "article ingested",
		"title", req.Title, "chunks", len(records), "duration_ms", elapsed.Milliseconds())

	return &IngestResult{
		EmbeddingsCount:  len(records),
		ArticleTitle:     req.Title,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

func (s *Service) fail(start time.Time, title string, err error) error {
	return fmt.Errorf("ingesting %q failed after %dms: %w",
		title, time.Since(start).Milliseconds(), err)
}
