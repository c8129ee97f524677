package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stride-core/internal/usage"
	"stride-core/pkg/logging/logging"
)

// UsageReader is the accountant surface the handler needs.
type UsageReader interface {
	Summary(ctx context.Context, userID string) ([]usage.Summary, error)
}

// UsageHandler exposes per-user usage summaries.
type UsageHandler struct {
	Reader UsageReader
}

func NewUsageHandler(reader UsageReader) *UsageHandler {
	return &UsageHandler{Reader: reader}
}

// Summary handles GET /v1/usage/{userID}.
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Detail: "user id is required"})
		return
	}

	sums, err := h.Reader.Summary(ctx, userID)
	if err != nil {
		logger.Error("usage summary failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_server_error"})
		return
	}
	if sums == nil {
		sums = []usage.Summary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"usage":   sums,
	})
}
