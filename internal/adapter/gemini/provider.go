package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-embedding-001"

// Provider embeds texts through the Gemini embedding API. It is constructed
// once at process start and shared by reference; there is no teardown beyond
// Close on process exit.
type Provider struct {
	client *genai.Client
	model  string
}

func NewProvider(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Provider, error) {
	if model == "" {
		model = defaultModel
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, model: model}, nil
}

// EmbedBatch submits all texts in a single batch request and returns one
// vector per input, in input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	em := p.client.EmbeddingModel(p.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		slog.ErrorContext(ctx, "batch embedding failed", "model", p.model, "size", len(texts), "error", err)
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

func (p *Provider) Close() error {
	return p.client.Close()
}
