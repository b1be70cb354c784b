package manage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"semsearch/internal/document"
	"semsearch/internal/middleware"
)

type VectorStore interface {
	Stats(ctx context.Context) (document.Stats, error)
	GetByTitle(ctx context.Context, title string) ([]document.VectorRecord, error)
	DeleteByTitle(ctx context.Context, title string) (int, error)
	DeleteByID(ctx context.Context, id string) error
}

// Registry is the article bookkeeping table; reads and deletes there are best
// effort because the vector store is the source of truth.
type Registry interface {
	DeleteByTitle(ctx context.Context, title string) error
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	store    VectorStore
	registry Registry
}

func NewHandler(store VectorStore, registry Registry) *Handler {
	return &Handler{store: store, registry: registry}
}

// statsView joins collection-level stats from the vector store with the
// registry's article count, so drift between the two stores is visible.
type statsView struct {
	document.Stats
	RegisteredArticles int `json:"registeredArticles"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to compute stats", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to compute stats", http.StatusInternalServerError)
		return
	}

	view := statsView{Stats: stats}
	if h.registry != nil {
		if count, err := h.registry.Count(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "failed to count registered articles", "error", err)
		} else {
			view.RegisteredArticles = count
		}
	}

	h.writeData(w, view)
}

// chunkView strips vectors from records for the management API; vectors are
// large and of no use to a human operator.
type chunkView struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata document.Metadata `json:"metadata"`
}

func (h *Handler) GetArticleChunks(w http.ResponseWriter, r *http.Request) {
	title, err := url.PathUnescape(r.PathValue("title"))
	if err != nil || title == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "title is required", http.StatusBadRequest)
		return
	}

	records, err := h.store.GetByTitle(r.Context(), title)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get article chunks", "title", title, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to get article chunks", http.StatusInternalServerError)
		return
	}

	views := make([]chunkView, 0, len(records))
	for _, rec := range records {
		views = append(views, chunkView{ID: rec.ID, Content: rec.Content, Metadata: rec.Metadata})
	}
	h.writeData(w, views)
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	title, err := url.PathUnescape(r.PathValue("title"))
	if err != nil || title == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "title is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.store.DeleteByTitle(r.Context(), title)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", err.Error(), http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete article", "title", title, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to delete article", http.StatusInternalServerError)
		return
	}

	if h.registry != nil {
		if err := h.registry.DeleteByTitle(r.Context(), title); err != nil {
			slog.WarnContext(r.Context(), "failed to delete article from registry", "title", title, "error", err)
		}
	}

	h.writeData(w, map[string]interface{}{"deletedCount": deleted, "title": title})
}

func (h *Handler) DeleteEmbedding(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, document.ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", err.Error(), http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete embedding", "id", id, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to delete embedding", http.StatusInternalServerError)
		return
	}

	h.writeData(w, map[string]interface{}{"deletedCount": 1, "id": id})
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
