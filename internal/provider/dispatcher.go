package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"stride-core/internal/metrics"
)

// ErrAllProvidersFailed is the terminal dispatcher outcome: every configured
// provider failed for one logical request.
var ErrAllProvidersFailed = errors.New("all providers failed")

// AllFailedError wraps the last provider error once the whole chain is
// exhausted.
type AllFailedError struct {
	Attempts int
	Last     error
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("all %d providers failed: %v", e.Attempts, e.Last)
}

func (e *AllFailedError) Unwrap() error { return ErrAllProvidersFailed }

// ResultCheck inspects a received result as part of one dispatch attempt.
// A non-nil error fails that attempt and the dispatcher moves on to the next
// provider, so content-level problems (an unparsable body for a structured
// kind) trigger the same failover as transport errors.
type ResultCheck func(*Result) error

// Dispatcher sends a prompt payload to providers in fixed priority order.
// Any failure from one provider (transport, status, parse, failed check)
// falls through to the next; the caller sees either one normalized Result or
// one typed error.
type Dispatcher struct {
	callers []Caller
	logger  *zap.Logger
}

func NewDispatcher(callers []Caller, logger *zap.Logger) (*Dispatcher, error) {
	if len(callers) == 0 {
		return nil, errors.New("dispatcher: at least one provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		callers: callers,
		logger:  logger.Named("dispatcher"),
	}, nil
}

// Execute tries each provider in order until one succeeds. Checks run
// against every received result; a check failure counts as that provider's
// failure.
func (d *Dispatcher) Execute(ctx context.Context, req *Request, checks ...ResultCheck) (*Result, error) {
	var lastErr error

	for i, caller := range d.callers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := caller.Generate(ctx, req)
		if err == nil {
			for _, check := range checks {
				if cerr := check(res); cerr != nil {
					err = cerr
					break
				}
			}
		}
		if err == nil {
			return res, nil
		}
		lastErr = err

		metrics.ProviderFailuresTotal.WithLabelValues(caller.Name()).Inc()
		if i < len(d.callers)-1 {
			metrics.ProviderFallbacksTotal.Inc()
			d.logger.Warn("provider failed, falling back",
				zap.String("provider", caller.Name()),
				zap.String("next", d.callers[i+1].Name()),
				zap.Error(err),
			)
		}
	}

	d.logger.Error("all providers failed",
		zap.Int("attempts", len(d.callers)),
		zap.Error(lastErr),
	)
	return nil, &AllFailedError{Attempts: len(d.callers), Last: lastErr}
}
