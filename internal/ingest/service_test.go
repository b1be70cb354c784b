package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"semsearch/internal/document"
	"semsearch/internal/ingest"
)

type MockChunker struct{ mock.Mock }

func (m *MockChunker) Split(content string, meta document.Metadata) []document.Chunk {
	args := m.Called(content, meta)
	return args.Get(0).([]document.Chunk)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) GenerateEmbeddings(ctx context.Context, chunks []document.Chunk) ([]document.VectorRecord, error) {
	args := m.Called(ctx, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.VectorRecord), args.Error(1)
}

type MockVectorStore struct{ mock.Mock }

func (m *MockVectorStore) UpsertMany(ctx context.Context, records []document.VectorRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockVectorStore) DeleteByTitle(ctx context.Context, title string) (int, error) {
	args := m.Called(ctx, title)
	return args.Int(0), args.Error(1)
}

type MockRegistry struct{ mock.Mock }

func (m *MockRegistry) Record(ctx context.Context, rec ingest.ArticleRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func validRequest() ingest.IngestRequest {
	return ingest.IngestRequest{
		Title:   "go memory model",
		Author:  "grace",
		Content: strings.Repeat("Plenty of article content to chunk. ", 10),
	}
}

func twoChunks() []document.Chunk {
	return []document.Chunk{
		{ID: document.ChunkID("go memory model", 0), Content: "a"},
		{ID: document.ChunkID("go memory model", 1), Content: "b"},
	}
}

func twoRecords() []document.VectorRecord {
	return []document.VectorRecord{
		{ID: "r0", Vector: []float32{0.1}},
		{ID: "r1", Vector: []float32{0.2}},
	}
}

func TestService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy Path", func(t *testing.T) {
		chunker := new(MockChunker)
		embedder := new(MockEmbedder)
		store := new(MockVectorStore)
		registry := new(MockRegistry)
		svc := ingest.NewService(chunker, embedder, store, registry, 100)

		req := validRequest()
		chunks := twoChunks()
		records := twoRecords()

		chunker.On("Split", req.Content, document.Metadata{
			Title: req.Title, Author: req.Author,
		}).Return(chunks)
		embedder.On("GenerateEmbeddings", mock.Anything, chunks).Return(records, nil)
		store.On("UpsertMany", mock.Anything, records).Return(nil)
		registry.On("Record", mock.Anything, ingest.ArticleRecord{
			Title: req.Title, Author: req.Author, ChunkCount: 2,
		}).Return(nil)

		result, err := svc.Ingest(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 2, result.EmbeddingsCount)
		assert.Equal(t, req.Title, result.ArticleTitle)
		store.AssertNotCalled(t, "DeleteByTitle")
		registry.AssertExpectations(t)
	})

	t.Run("Missing Title", func(t *testing.T) {
		svc := ingest.NewService(new(MockChunker), new(MockEmbedder), new(MockVectorStore), nil, 100)

		req := validRequest()
		req.Title = "  "
		_, err := svc.Ingest(ctx, req)
		assert.ErrorIs(t, err, document.ErrValidation)
	})

	t.Run("Content Too Short", func(t *testing.T) {
		svc := ingest.NewService(new(MockChunker), new(MockEmbedder), new(MockVectorStore), nil, 100)

		req := validRequest()
		req.Content = "too short"
		_, err := svc.Ingest(ctx, req)
		assert.ErrorIs(t, err, document.ErrValidation)
		assert.Contains(t, err.Error(), "100")
	})

	t.Run("Replace Existing Deletes First", func(t *testing.T) {
		chunker := new(MockChunker)
		embedder := new(MockEmbedder)
		store := new(MockVectorStore)
		svc := ingest.NewService(chunker, embedder, store, nil, 100)

		req := validRequest()
		req.ReplaceExisting = true

		store.On("DeleteByTitle", mock.Anything, req.Title).Return(4, nil)
		chunker.On("Split", mock.Anything, mock.Anything).Return(twoChunks())
		embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(twoRecords(), nil)
		store.On("UpsertMany", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Ingest(ctx, req)
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("Replace Existing Tolerates Missing Article", func(t *testing.T) {
		chunker := new(MockChunker)
		embedder := new(MockEmbedder)
		store := new(MockVectorStore)
		svc := ingest.NewService(chunker, embedder, store, nil, 100)

		req := validRequest()
		req.ReplaceExisting = true

		store.On("DeleteByTitle", mock.Anything, req.Title).
			Return(0, fmt.Errorf("%w: nothing stored", document.ErrNotFound))
		chunker.On("Split", mock.Anything, mock.Anything).Return(twoChunks())
		embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(twoRecords(), nil)
		store.On("UpsertMany", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Ingest(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("Replace Existing Surfaces Real Delete Failures", func(t *testing.T) {
		store := new(MockVectorStore)
		svc := ingest.NewService(new(MockChunker), new(MockEmbedder), store, nil, 100)

		req := validRequest()
		req.ReplaceExisting = true

		store.On("DeleteByTitle", mock.Anything, req.Title).
			Return(0, fmt.Errorf("%w: weaviate down", document.ErrExternalService))

		_, err := svc.Ingest(ctx, req)
		assert.ErrorIs(t, err, document.ErrExternalService)
		store.AssertNotCalled(t, "UpsertMany")
	})

	t.Run("Embedding Failure Wraps With Elapsed Time", func(t *testing.T) {
		chunker := new(MockChunker)
		embedder := new(MockEmbedder)
		store := new(MockVectorStore)
		svc := ingest.NewService(chunker, embedder, store, nil, 100)

		chunker.On("Split", mock.Anything, mock.Anything).Return(twoChunks())
		embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: quota exceeded", document.ErrExternalService))

		_, err := svc.Ingest(ctx, validRequest())
		require.Error(t, err)
		assert.ErrorIs(t, err, document.ErrExternalService)
		assert.Contains(t, err.Error(), "failed after")
		store.AssertNotCalled(t, "UpsertMany")
	})

	t.Run("Store Failure Propagates", func(t *testing.T) {
		chunker := new(MockChunker)
		embedder := new(MockEmbedder)
		store := new(MockVectorStore)
		svc := ingest.NewService(chunker, embedder, store, nil, 100)

		chunker.On("Split", mock.Anything, mock.Anything).Return(twoChunks())
		embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(twoRecords(), nil)
		store.On("UpsertMany", mock.Anything, mock.Anything).Return(errors.New("batch rejected"))

		_, err := svc.Ingest(ctx, validRequest())
		assert.ErrorContains(t, err, "batch rejected")
	})

	t.Run("Registry Failure Does Not Fail Ingestion", func(t *testing.T) {
		chunker := new(MockChunker)
		embedder := new(MockEmbedder)
		store := new(MockVectorStore)
		registry := new(MockRegistry)
		svc := ingest.NewService(chunker, embedder, store, registry, 100)

		chunker.On("Split", mock.Anything, mock.Anything).Return(twoChunks())
		embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(twoRecords(), nil)
		store.On("UpsertMany", mock.Anything, mock.Anything).Return(nil)
		registry.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

		result, err := svc.Ingest(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, 2, result.EmbeddingsCount)
	})
}
