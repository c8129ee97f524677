package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"stride-core/internal/metrics"
)

// Record is one append-only usage row: one per completed provider call.
type Record struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Endpoint         string    `json:"endpoint"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	Metadata         string    `json:"metadata,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary aggregates a user's usage per endpoint and model.
type Summary struct {
	Endpoint     string  `json:"endpoint"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	RequestCount int     `json:"request_count"`
	TotalTokens  int64   `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

const createTable = `
CREATE TABLE IF NOT EXISTS usage_records (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	metadata TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_user_time ON usage_records(user_id, created_at);
`

// Recorder persists usage records and derives cost. Recording is
// fire-and-forget: persistence failures are logged and dropped so they can
// never fail or delay the originating request.
type Recorder struct {
	db      *sql.DB
	pricing Pricing
	logger  *zap.Logger

	// injectable for tests
	now func() time.Time
}

// NewRecorder opens (and auto-migrates) the usage database. Use the
// ":memory:" DSN for a process-local store.
func NewRecorder(dbPath string, pricing Pricing, logger *zap.Logger) (*Recorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	if dbPath == ":memory:" {
		// pooled connections would each see their own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage db: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		db:      db,
		pricing: pricing,
		logger:  logger.Named("usage"),
		now:     time.Now,
	}, nil
}

// Record fills in id, derived cost and timestamp, then appends the row.
// It never returns an error.
func (r *Recorder) Record(ctx context.Context, rec Record) {
	rec.ID = uuid.NewString()
	rec.TotalTokens = rec.PromptTokens + rec.CompletionTokens
	rec.CostUSD = r.pricing.Cost(rec.Provider, rec.Model, rec.PromptTokens, rec.CompletionTokens)
	rec.CreatedAt = r.now().UTC()

	metrics.TokensTotal.WithLabelValues(rec.Provider, rec.Model, "prompt").Add(float64(rec.PromptTokens))
	metrics.TokensTotal.WithLabelValues(rec.Provider, rec.Model, "completion").Add(float64(rec.CompletionTokens))
	metrics.CostUSDTotal.WithLabelValues(rec.Provider, rec.Model).Add(rec.CostUSD)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_records
		 (id, user_id, endpoint, provider, model, prompt_tokens, completion_tokens, total_tokens, cost_usd, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Endpoint, rec.Provider, rec.Model,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.CostUSD, rec.Metadata, rec.CreatedAt,
	)
	if err != nil {
		// Swallowed: accounting must never break the request path.
		r.logger.Warn("usage record dropped",
			zap.String("user_id", rec.UserID),
			zap.String("endpoint", rec.Endpoint),
			zap.Error(err),
		)
		return
	}

	r.logger.Info("usage recorded",
		zap.String("user_id", rec.UserID),
		zap.String("endpoint", rec.Endpoint),
		zap.String("provider", rec.Provider),
		zap.String("model", rec.Model),
		zap.Int("prompt_tokens", rec.PromptTokens),
		zap.Int("completion_tokens", rec.CompletionTokens),
		zap.Float64("cost_usd", rec.CostUSD),
	)
}

// Summary returns a user's aggregated usage per endpoint/provider/model.
func (r *Recorder) Summary(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT endpoint, provider, model, COUNT(*), SUM(total_tokens), SUM(cost_usd)
		 FROM usage_records
		 WHERE user_id = ?
		 GROUP BY endpoint, provider, model
		 ORDER BY endpoint, provider, model`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("usage summary: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Endpoint, &s.Provider, &s.Model, &s.RequestCount, &s.TotalTokens, &s.CostUSD); err != nil {
			return nil, fmt.Errorf("usage summary scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
