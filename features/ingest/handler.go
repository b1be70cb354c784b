package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"semsearch/internal/document"
	"semsearch/internal/ingest"
	"semsearch/internal/middleware"
)

type Ingestor interface {
	Ingest(ctx context.Context, req ingest.IngestRequest) (*ingest.IngestResult, error)
}

type Handler struct {
	service Ingestor
}

func NewHandler(service Ingestor) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content         string `json:"content"`
		Title           string `json:"title"`
		Author          string `json:"author"`
		URL             string `json:"url"`
		PublishedDate   string `json:"publishedDate"`
		ReplaceExisting bool   `json:"replaceExisting"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Ingest(r.Context(), ingest.IngestRequest{
		Content:         req.Content,
		Title:           req.Title,
		Author:          req.Author,
		URL:             req.URL,
		PublishedDate:   req.PublishedDate,
		ReplaceExisting: req.ReplaceExisting,
	})
	if err != nil {
		if errors.Is(err, document.ErrValidation) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "ingestion failed", "title", req.Title, "error", err)
		if errors.Is(err, document.ErrExternalService) {
			h.writeError(r.Context(), w, "UPSTREAM_ERROR", err.Error(), http.StatusBadGateway)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": result}); err != nil {
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
