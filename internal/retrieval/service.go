package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"semsearch/internal/document"
	"semsearch/internal/middleware"
)

// SearchResponse is the full result shape of one query. Downstream failures
// (provider, store) degrade to an empty result set with Error set instead of
// propagating; only input validation is returned as a Go error.
type SearchResponse struct {
	Results      []document.SearchResult `json:"results"`
	Query        string                  `json:"query"`
	TotalResults int                     `json:"totalResults"`
	SearchTimeMs int64                   `json:"searchTimeMs"`
	Error        string                  `json:"error,omitempty"`
}

type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, queryVector []float32, opts *document.SearchOptions) ([]document.SearchResult, error)
}

// Service answers text queries: embed the query, rank stored records
// against it.
type Service struct {
	embedder Embedder
	store    VectorStore
	logger   *QueryLogger
}

func NewService(embedder Embedder, store VectorStore, logger *QueryLogger) *Service {
	return &Service{embedder: embedder, store: store, logger: logger}
}

func (s *Service) Search(ctx context.Context, query string, opts *document.SearchOptions) (*SearchResponse, error) {
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", document.ErrValidation)
	}

	resp := &SearchResponse{
		Query:   query,
		Results: []document.SearchResult{},
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "query embedding failed", "error", err)
		resp.Error = err.Error()
		resp.SearchTimeMs = time.Since(start).Milliseconds()
		return resp, nil
	}

	results, err := s.store.Search(ctx, vec, opts)
	if err != nil {
		slog.ErrorContext(ctx, "similarity search failed", "error", err)
		resp.Error = err.Error()
		resp.SearchTimeMs = time.Since(start).Milliseconds()
		return resp, nil
	}

	if results != nil {
		resp.Results = results
	}
	resp.TotalResults = len(resp.Results)
	resp.SearchTimeMs = time.Since(start).Milliseconds()

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			NumResults:    resp.TotalResults,
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	return resp, nil
}
