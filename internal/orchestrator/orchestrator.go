package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"stride-core/internal/artifact"
	"stride-core/internal/cache"
	"stride-core/internal/metrics"
	"stride-core/internal/profile"
	"stride-core/internal/provider"
	"stride-core/internal/quota"
	"stride-core/internal/usage"
	"stride-core/pkg/logging/logging"
)

var (
	// ErrInvalidInput means the caller's parameters were insufficient.
	// Surfaced before any quota is consumed or provider contacted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable is the terminal outcome when every provider
	// failed and the kind has no safe default.
	ErrServiceUnavailable = errors.New("ai service unavailable")
)

// Request describes one artifact generation call. The prompt payload in
// Messages is already built by the caller; Params are the salient parameters
// used for fingerprinting.
type Request struct {
	UserID      string
	Tier        quota.Tier
	Kind        artifact.Kind
	Params      map[string]any
	Messages    []provider.Message
	Signal      profile.Signal
	TTL         time.Duration // 0 = kind default
	Temperature float32
	MaxTokens   int
}

// Response is what crosses back over the core boundary on success.
type Response struct {
	Artifact         artifact.Artifact `json:"artifact"`
	Cached           bool              `json:"cached"`
	Fallback         bool              `json:"fallback"`
	Provider         string            `json:"provider,omitempty"`
	Model            string            `json:"model,omitempty"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
}

// executor is the dispatcher surface the core needs. Checks must run against
// every received result so content-level failures fail over like transport
// failures.
type executor interface {
	Execute(ctx context.Context, req *provider.Request, checks ...provider.ResultCheck) (*provider.Result, error)
}

// recorder is the accounting surface the core needs.
type recorder interface {
	Record(ctx context.Context, rec usage.Record)
}

// Core wires the pipeline: limiter gates the call, the cache is checked, a
// miss goes to the dispatcher with personalization bias attached, usage is
// accounted, and the result is cached. One Core instance is constructed at
// process start and injected into handlers.
type Core struct {
	cache    cache.Store
	limiter  *quota.Limiter
	exec     executor
	recorder recorder
	logger   *zap.Logger
}

func New(store cache.Store, limiter *quota.Limiter, exec executor, rec recorder, logger *zap.Logger) *Core {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Core{
		cache:    store,
		limiter:  limiter,
		exec:     exec,
		recorder: rec,
		logger:   logger.Named("orchestrator"),
	}
}

// Generate runs one request through the full pipeline.
func (c *Core) Generate(ctx context.Context, req Request) (*Response, error) {
	logger := c.logger
	if reqLogger, ok := logging.TryFromContext(ctx); ok {
		logger = reqLogger
	}

	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Tier == "" {
		req.Tier = quota.TierFree
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = req.Kind.DefaultTTL()
	}

	// Gate before anything costs money. Consumed on attempt, not success.
	if err := c.limiter.CheckAndConsume(req.UserID, req.Tier); err != nil {
		reason := "rate_limit"
		if errors.Is(err, quota.ErrDailyQuota) {
			reason = "daily_quota"
		}
		metrics.QuotaRejectionsTotal.WithLabelValues(reason).Inc()
		return nil, err
	}

	// The normalized weights bias the prompt, so they are part of the
	// request's identity and feed the fingerprint.
	weights := profile.Normalize(req.Signal)

	// Fingerprint failures are best-effort: proceed uncached.
	fp, fpErr := cache.BuildFingerprint(req.UserID, req.Kind, req.Params, weights)
	if fpErr != nil {
		logger.Warn("fingerprint_error", zap.Error(fpErr))
	}

	if fpErr == nil {
		if resp, ok := c.lookup(ctx, logger, fp); ok {
			return resp, nil
		}
	}

	// Runs once per received response inside the dispatch loop. Usage is
	// accounted whether or not the body decodes; a decode failure fails that
	// attempt so the dispatcher moves on to the next provider.
	var art artifact.Artifact
	decodeAndAccount := func(res *provider.Result) error {
		c.recorder.Record(ctx, usage.Record{
			UserID:           req.UserID,
			Endpoint:         string(req.Kind),
			Provider:         res.Provider,
			Model:            res.Model,
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
		})

		a, err := artifact.Decode(req.Kind, res.Content)
		if err != nil {
			logger.Warn("artifact_decode_error",
				zap.String("kind", string(req.Kind)),
				zap.String("provider", res.Provider),
				zap.Error(err),
			)
			return err
		}
		art = a
		return nil
	}

	result, err := c.exec.Execute(ctx, c.buildPayload(req, weights), decodeAndAccount)
	if err != nil {
		return c.fallback(logger, req.Kind, err)
	}

	if fpErr == nil {
		c.store(ctx, logger, fp, art, ttl)
	}

	return &Response{
		Artifact:         art,
		Provider:         result.Provider,
		Model:            result.Model,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
	}, nil
}

// lookup checks the response cache. Cache errors are logged and treated as a
// miss.
func (c *Core) lookup(ctx context.Context, logger *zap.Logger, fp cache.Fingerprint) (*Response, bool) {
	raw, hit, err := c.cache.Get(ctx, fp.String())
	if err != nil {
		logger.Warn("cache_get_error", zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}

	var art artifact.Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		logger.Warn("cache_unmarshal_error", zap.Error(err))
		return nil, false
	}

	return &Response{Artifact: art, Cached: true}, true
}

// store writes a freshly generated artifact back, best-effort.
func (c *Core) store(ctx context.Context, logger *zap.Logger, fp cache.Fingerprint, art artifact.Artifact, ttl time.Duration) {
	raw, err := json.Marshal(art)
	if err != nil {
		logger.Warn("cache_marshal_error", zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, fp.String(), raw, ttl); err != nil {
		logger.Warn("cache_set_error", zap.Error(err))
	}
}

// buildPayload attaches the personalization bias derived from the user's
// motivation weights as a trailing system message.
func (c *Core) buildPayload(req Request, weights profile.Weights) *provider.Request {
	messages := req.Messages

	if hints := profile.DeriveHints(weights); len(hints) > 0 {
		messages = append(messages[:len(messages):len(messages)], provider.Message{
			Role:    provider.RoleSystem,
			Content: "Personalization bias:\n- " + strings.Join(hints, "\n- "),
		})
	}

	return &provider.Request{
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

// fallback serves the kind's pre-defined default artifact if one exists;
// otherwise the failure crosses the core boundary as a closed error.
func (c *Core) fallback(logger *zap.Logger, kind artifact.Kind, cause error) (*Response, error) {
	if def, ok := artifact.Default(kind); ok {
		metrics.DefaultArtifactsTotal.WithLabelValues(string(kind)).Inc()
		logger.Warn("serving default artifact",
			zap.String("kind", string(kind)),
			zap.Error(cause),
		)
		return &Response{Artifact: def, Fallback: true}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, cause)
}

func validate(req Request) error {
	if strings.TrimSpace(req.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if _, err := artifact.ParseKind(string(req.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: prompt payload is empty", ErrInvalidInput)
	}
	return nil
}
