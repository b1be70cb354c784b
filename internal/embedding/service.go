package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"semsearch/internal/document"
)

const (
	// DefaultBatchSize is how many chunks go to the provider per request.
	DefaultBatchSize = 10
	// DefaultBatchInterval paces batch requests against provider rate
	// limits.
	DefaultBatchInterval = 100 * time.Millisecond
)

// Provider converts a batch of texts into one vector per text. All vectors
// from one provider share a fixed dimensionality.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Service turns chunks into vector records by calling the provider in
// fixed-size batches, paced by a token bucket. Nothing is persisted here;
// a provider failure aborts the remaining batches and surfaces the error.
type Service struct {
	provider  Provider
	batchSize int
	limiter   *rate.Limiter
}

func NewService(provider Provider, batchSize int, interval time.Duration) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	return &Service{
		provider:  provider,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}
}

// GenerateEmbeddings embeds chunks batch by batch, strictly sequentially.
// Each batch is all-or-nothing: an error aborts generation for everything
// not yet embedded.
func (s *Service) GenerateEmbeddings(ctx context.Context, chunks []document.Chunk) ([]document.VectorRecord, error) {
	records := make([]document.VectorRecord, 0, len(chunks))

	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := s.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding batch %d: %v",
				document.ErrExternalService, start/s.batchSize, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d inputs",
				document.ErrExternalService, len(vectors), len(batch))
		}

		now := time.Now().UTC()
		for i, c := range batch {
			records = append(records, document.VectorRecord{
				ID:        c.ID,
				Vector:    vectors[i],
				Content:   c.Content,
				Metadata:  c.Metadata,
				CreatedAt: now,
			})
		}

		slog.DebugContext(ctx, "embedded batch",
			"batch", start/s.batchSize, "size", len(batch), "total", len(chunks))
	}

	return records, nil
}

// EmbedQuery embeds a single query text.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.provider.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %v", document.ErrExternalService, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", document.ErrExternalService)
	}
	return vectors[0], nil
}
