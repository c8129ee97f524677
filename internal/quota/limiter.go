package quota

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tier is a user's subscription level, determining quota ceilings.
type Tier string

const (
	TierFree Tier = "free"
	TierPlus Tier = "plus"
	TierPro  Tier = "pro"
)

var (
	// ErrDailyQuota means the daily ceiling was hit. Terminal for the day.
	ErrDailyQuota = errors.New("daily quota exceeded")
	// ErrRateLimited means the per-minute window is full. Retry after the
	// reported wait.
	ErrRateLimited = errors.New("rate limited")
)

// RejectionError carries enough for the caller to react: which limit was hit
// and how long to wait.
type RejectionError struct {
	Limit      int
	RetryAfter time.Duration
	reason     error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v (limit %d, retry after %s)", e.reason, e.Limit, e.RetryAfter)
}

func (e *RejectionError) Unwrap() error { return e.reason }

// Limits configures the ceilings the limiter enforces. A daily ceiling <= 0
// means unlimited for that tier.
type Limits struct {
	Daily     map[Tier]int
	PerMinute int
	Window    time.Duration
}

// DefaultLimits mirror the product tiers: a small free allowance, a larger
// paid one, effectively unlimited for pro.
func DefaultLimits() Limits {
	return Limits{
		Daily: map[Tier]int{
			TierFree: 10,
			TierPlus: 100,
			TierPro:  0,
		},
		PerMinute: 6,
		Window:    time.Minute,
	}
}

type userState struct {
	mu          sync.Mutex
	dayKey      string
	dailyCount  int
	windowStart time.Time
	windowCount int
}

// Limiter tracks per-user daily quota and a reset-on-expiry minute window.
// State is partitioned per user: the registry lock is held only long enough
// to find or create a user's entry, so one user's volume never blocks
// another's.
type Limiter struct {
	mu     sync.Mutex
	users  map[string]*userState
	limits Limits
	logger *zap.Logger

	// injectable for tests
	now func() time.Time
}

func NewLimiter(limits Limits, logger *zap.Logger) *Limiter {
	if limits.PerMinute <= 0 {
		limits.PerMinute = DefaultLimits().PerMinute
	}
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		users:  make(map[string]*userState),
		limits: limits,
		logger: logger.Named("quota"),
		now:    time.Now,
	}
}

// CheckAndConsume gates one request for a user. Quota is consumed on
// attempt, not on success, so provider failures and timeouts are not
// refunded. Daily quota is evaluated before the minute window.
func (l *Limiter) CheckAndConsume(userID string, tier Tier) error {
	st := l.state(userID)

	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.now().UTC()

	// Day rollover resets the daily counter exactly once.
	day := now.Format("2006-01-02")
	if st.dayKey != day {
		st.dayKey = day
		st.dailyCount = 0
	}

	if limit := l.limits.Daily[tier]; limit > 0 && st.dailyCount >= limit {
		l.logger.Info("daily quota rejected",
			zap.String("user_id", userID),
			zap.String("tier", string(tier)),
			zap.Int("limit", limit),
		)
		return &RejectionError{
			Limit:      limit,
			RetryAfter: untilNextDay(now),
			reason:     ErrDailyQuota,
		}
	}

	// Reset-on-expiry window anchored at the window's first call.
	if st.windowStart.IsZero() || now.Sub(st.windowStart) >= l.limits.Window {
		st.windowStart = now
		st.windowCount = 0
	}

	if st.windowCount >= l.limits.PerMinute {
		wait := l.limits.Window - now.Sub(st.windowStart)
		l.logger.Info("rate limit rejected",
			zap.String("user_id", userID),
			zap.Duration("retry_after", wait),
		)
		return &RejectionError{
			Limit:      l.limits.PerMinute,
			RetryAfter: wait,
			reason:     ErrRateLimited,
		}
	}

	st.dailyCount++
	st.windowCount++
	return nil
}

// DailyCount reports a user's consumed daily quota. Zero for unknown users.
func (l *Limiter) DailyCount(userID string) int {
	l.mu.Lock()
	st, ok := l.users[userID]
	l.mu.Unlock()
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.dayKey != l.now().UTC().Format("2006-01-02") {
		return 0
	}
	return st.dailyCount
}

func (l *Limiter) state(userID string) *userState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.users[userID]
	if !ok {
		st = &userState{}
		l.users[userID] = st
	}
	return st
}

func untilNextDay(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}
