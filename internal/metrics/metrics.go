package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: how many times we served from the artifact cache.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_cache_hits_total",
			Help: "Total number of artifact cache hits.",
		},
	)

	// Counter: limiter rejections, split by which limit was hit.
	QuotaRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Total requests rejected by the quota/rate limiter.",
		},
		[]string{"reason"},
	)

	// Counter: failovers from one provider to the next.
	ProviderFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "provider_fallbacks_total",
			Help: "Total fallbacks to a lower-priority provider.",
		},
	)

	// Counter: failed provider attempts, by provider.
	ProviderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_failures_total",
			Help: "Total failed provider attempts.",
		},
		[]string{"provider"},
	)

	// Counter: pre-defined default artifacts served after double failure.
	DefaultArtifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "default_artifacts_total",
			Help: "Total default artifacts served because all providers failed.",
		},
		[]string{"kind"},
	)

	// Counter: tokens billed, by provider/model/direction.
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total tokens consumed across provider calls.",
		},
		[]string{"provider", "model", "direction"},
	)

	// Counter: derived spend in USD, by provider/model.
	CostUSDTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_cost_usd_total",
			Help: "Derived cost of provider calls in USD.",
		},
		[]string{"provider", "model"},
	)

	// Histogram: HTTP latency in seconds.
	RequestLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aicore_request_latency_seconds",
			Help:    "HTTP request latency for the orchestration core in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"path", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		CacheHitsTotal,
		QuotaRejectionsTotal,
		ProviderFallbacksTotal,
		ProviderFailuresTotal,
		DefaultArtifactsTotal,
		TokensTotal,
		CostUSDTotal,
		RequestLatencySeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures latency for each HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// capture status code
		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()

		RequestLatencySeconds.
			WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
