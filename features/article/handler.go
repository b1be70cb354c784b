package article

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"semsearch/internal/middleware"
)

type Lister interface {
	List(ctx context.Context) ([]Article, error)
}

type Handler struct {
	service Lister
}

func NewHandler(service Lister) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list articles", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to list articles", http.StatusInternalServerError)
		return
	}
	if articles == nil {
		articles = []Article{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": articles}); err != nil {
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
