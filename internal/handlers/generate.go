package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"stride-core/internal/artifact"
	"stride-core/internal/orchestrator"
	"stride-core/internal/profile"
	"stride-core/internal/provider"
	"stride-core/internal/quota"
	"stride-core/pkg/logging/logging"
)

// GenerateRequest is the wire shape for POST /v1/generate. The prompt-builder
// layer supplies the messages; params are the salient request parameters.
type GenerateRequest struct {
	UserID      string             `json:"user_id"`
	Tier        string             `json:"tier,omitempty"`
	Kind        string             `json:"kind"`
	Params      map[string]any     `json:"params,omitempty"`
	Messages    []provider.Message `json:"messages"`
	Signal      profile.Signal     `json:"signal,omitempty"`
	TTLSeconds  int                `json:"ttl_seconds,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

type errorResponse struct {
	Error             string `json:"error"`
	Detail            string `json:"detail,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// GenerateHandler fronts the orchestration core.
type GenerateHandler struct {
	Core *orchestrator.Core
}

func NewGenerateHandler(core *orchestrator.Core) *GenerateHandler {
	return &GenerateHandler{Core: core}
}

// Generate handles POST /v1/generate.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json"})
		return
	}

	kind, err := artifact.ParseKind(req.Kind)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Detail: err.Error()})
		return
	}

	resp, err := h.Core.Generate(ctx, orchestrator.Request{
		UserID:      req.UserID,
		Tier:        quota.Tier(req.Tier),
		Kind:        kind,
		Params:      req.Params,
		Messages:    req.Messages,
		Signal:      req.Signal,
		TTL:         time.Duration(req.TTLSeconds) * time.Second,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		h.writeError(w, logger, err)
		return
	}

	logger.Info("generate_completed",
		zap.String("user_id", req.UserID),
		zap.String("kind", string(kind)),
		zap.Bool("cached", resp.Cached),
		zap.Bool("fallback", resp.Fallback),
		zap.String("provider", resp.Provider),
		zap.Duration("total_latency_ms", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the core's closed error set to HTTP statuses. Raw provider
// errors never reach the client.
func (h *GenerateHandler) writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var rej *quota.RejectionError

	switch {
	case errors.As(err, &rej):
		seconds := int(math.Ceil(rej.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		code := "rate_limited"
		if errors.Is(err, quota.ErrDailyQuota) {
			code = "quota_exceeded"
		}
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:             code,
			RetryAfterSeconds: seconds,
		})

	case errors.Is(err, orchestrator.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Detail: err.Error()})

	case errors.Is(err, orchestrator.ErrServiceUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ai_service_unavailable"})

	default:
		logger.Error("unexpected core error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_server_error"})
	}
}

// writeJSON is a small helper to send JSON responses consistently.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
