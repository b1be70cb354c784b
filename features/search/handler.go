package search

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"semsearch/internal/document"
	"semsearch/internal/middleware"
	"semsearch/internal/retrieval"
)

type Searcher interface {
	Search(ctx context.Context, query string, opts *document.SearchOptions) (*retrieval.SearchResponse, error)
}

type Handler struct {
	service Searcher
}

func NewHandler(service Searcher) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string            `json:"query"`
		Limit     int               `json:"limit"`
		Threshold *float64          `json:"threshold"`
		Filters   []document.Filter `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	opts := &document.SearchOptions{
		Limit:     req.Limit,
		Threshold: req.Threshold,
		Filters:   req.Filters,
	}

	resp, err := h.service.Search(r.Context(), req.Query, opts)
	if err != nil {
		if errors.Is(err, document.ErrValidation) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "search failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
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
