package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	wstore "semsearch/internal/adapter/weaviate"
	"semsearch/internal/config"
)

type fakeProvider struct{}

func (fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func TestNew(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wClient, err := weaviate.NewClient(weaviate.Config{
		Host:   server.URL[7:],
		Scheme: "http",
	})
	assert.NoError(t, err)

	cfg := &config.Config{
		ChunkSize:        1000,
		ChunkOverlap:     200,
		MinContentLength: 100,
		EmbedBatchSize:   10,
		QueryLogPath:     t.TempDir() + "/query.log",
	}

	a, err := New(cfg, db, wstore.NewStore(wClient), fakeProvider{})
	assert.NoError(t, err)
	assert.NotNil(t, a)
	assert.NotNil(t, a.Handler)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_CORSPreflight(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wClient, err := weaviate.NewClient(weaviate.Config{Host: server.URL[7:], Scheme: "http"})
	assert.NoError(t, err)

	cfg := &config.Config{
		ChunkSize:        1000,
		ChunkOverlap:     200,
		MinContentLength: 100,
		EmbedBatchSize:   10,
		QueryLogPath:     t.TempDir() + "/query.log",
	}

	a, err := New(cfg, db, wstore.NewStore(wClient), fakeProvider{})
	assert.NoError(t, err)

	req := httptest.NewRequest("OPTIONS", "/search", nil)
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
